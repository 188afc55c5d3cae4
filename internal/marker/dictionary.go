package marker

import (
	"github.com/pkg/errors"
	"gocv.io/x/gocv"
)

// dictionaryNames is the listing order; dictionaryCodes must cover every
// entry. DEFAULT, ARUCO and ARUCO_DEFAULT are aliases kept for
// compatibility with earlier versions of this tool.
var dictionaryNames = []string{
	"DEFAULT",
	"ARUCO",
	"ARUCO_DEFAULT",
	"ARUCO_4X4_50",
	"ARUCO_4X4_100",
	"ARUCO_4X4_250",
	"ARUCO_4X4_1000",
	"ARUCO_5X5_50",
	"ARUCO_5X5_100",
	"ARUCO_5X5_250",
	"ARUCO_5X5_1000",
	"ARUCO_6X6_50",
	"ARUCO_6X6_100",
	"ARUCO_6X6_250",
	"ARUCO_6X6_1000",
	"ARUCO_7X7_50",
	"ARUCO_7X7_100",
	"ARUCO_7X7_250",
	"ARUCO_7X7_1000",
	"APRILTAG_16H5",
	"APRILTAG_25H9",
	"APRILTAG_36H10",
	"APRILTAG_36H11",
}

var dictionaryCodes = map[string]gocv.ArucoDictionaryCode{
	"DEFAULT":        gocv.ArucoDictArucoOriginal,
	"ARUCO":          gocv.ArucoDictArucoOriginal,
	"ARUCO_DEFAULT":  gocv.ArucoDictArucoOriginal,
	"ARUCO_4X4_50":   gocv.ArucoDict4x4_50,
	"ARUCO_4X4_100":  gocv.ArucoDict4x4_100,
	"ARUCO_4X4_250":  gocv.ArucoDict4x4_250,
	"ARUCO_4X4_1000": gocv.ArucoDict4x4_1000,
	"ARUCO_5X5_50":   gocv.ArucoDict5x5_50,
	"ARUCO_5X5_100":  gocv.ArucoDict5x5_100,
	"ARUCO_5X5_250":  gocv.ArucoDict5x5_250,
	"ARUCO_5X5_1000": gocv.ArucoDict5x5_1000,
	"ARUCO_6X6_50":   gocv.ArucoDict6x6_50,
	"ARUCO_6X6_100":  gocv.ArucoDict6x6_100,
	"ARUCO_6X6_250":  gocv.ArucoDict6x6_250,
	"ARUCO_6X6_1000": gocv.ArucoDict6x6_1000,
	"ARUCO_7X7_50":   gocv.ArucoDict7x7_50,
	"ARUCO_7X7_100":  gocv.ArucoDict7x7_100,
	"ARUCO_7X7_250":  gocv.ArucoDict7x7_250,
	"ARUCO_7X7_1000": gocv.ArucoDict7x7_1000,
	"APRILTAG_16H5":  gocv.ArucoDictAprilTag_16h5,
	"APRILTAG_25H9":  gocv.ArucoDictAprilTag_25h9,
	"APRILTAG_36H10": gocv.ArucoDictAprilTag_36h10,
	"APRILTAG_36H11": gocv.ArucoDictAprilTag_36h11,
}

// DictionaryNames lists the supported dictionary names in a stable order.
func DictionaryNames() []string {
	names := make([]string, len(dictionaryNames))
	copy(names, dictionaryNames)
	return names
}

// LoadDictionary resolves a fiducial dictionary by name. An unknown name
// is a configuration error and fatal to the caller.
func LoadDictionary(name string) (gocv.ArucoDictionary, error) {
	code, ok := dictionaryCodes[name]
	if !ok {
		return gocv.ArucoDictionary{}, errors.Errorf("unknown fiducial dictionary %q", name)
	}
	return gocv.GetPredefinedDictionary(code), nil
}
