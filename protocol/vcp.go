package protocol

import "fmt"

// Standard VCP feature codes per MCCS 2.2a.
const (
	VCPNewControlValue        = 0x02
	VCPRestoreFactoryDefaults = 0x04
	VCPRestoreLuminance       = 0x05
	VCPRestoreColor           = 0x08
	VCPColorTemperatureStep   = 0x0B
	VCPColorTemperature       = 0x0C
	VCPBrightness             = 0x10
	VCPContrast               = 0x12
	VCPColorPreset            = 0x14
	VCPRedGain                = 0x16
	VCPGreenGain              = 0x18
	VCPBlueGain               = 0x1A
	VCPActiveControl          = 0x52
	VCPInputSource            = 0x60
	VCPAudioVolume            = 0x62
	VCPRedBlackLevel          = 0x6C
	VCPGreenBlackLevel        = 0x6E
	VCPBlueBlackLevel         = 0x70
	VCPSharpness              = 0x87
	VCPAudioMute              = 0x8D
	VCPHorizontalFrequency    = 0xAC
	VCPVerticalFrequency      = 0xAE
	VCPSubPixelLayout         = 0xB2
	VCPDisplayTechnology      = 0xB6
	VCPUsageTime              = 0xC0
	VCPControllerType         = 0xC8
	VCPFirmwareLevel          = 0xC9
	VCPOSD                    = 0xCA
	VCPOSDLanguage            = 0xCC
	VCPPowerMode              = 0xD6
	VCPDisplayMode            = 0xDC
	VCPVersion                = 0xDF
)

// Power mode values of VCPPowerMode.
const (
	PowerOn      = 0x01
	PowerStandby = 0x02
	PowerSuspend = 0x03
	PowerOff     = 0x04
	PowerHardOff = 0x05
)

// Common input source values of VCPInputSource.
const (
	InputVGA1         = 0x01
	InputVGA2         = 0x02
	InputDVI1         = 0x03
	InputDVI2         = 0x04
	InputComposite1   = 0x05
	InputSVideo1      = 0x07
	InputDisplayPort1 = 0x0F
	InputDisplayPort2 = 0x10
	InputHDMI1        = 0x11
	InputHDMI2        = 0x12
)

var featureNames = map[byte]string{
	VCPNewControlValue:        "new control value",
	VCPRestoreFactoryDefaults: "restore factory defaults",
	VCPRestoreLuminance:       "restore factory luminance/contrast",
	VCPRestoreColor:           "restore factory color",
	VCPColorTemperatureStep:   "color temperature increment",
	VCPColorTemperature:       "color temperature request",
	VCPBrightness:             "brightness",
	VCPContrast:               "contrast",
	VCPColorPreset:            "color preset",
	VCPRedGain:                "red gain",
	VCPGreenGain:              "green gain",
	VCPBlueGain:               "blue gain",
	VCPActiveControl:          "active control",
	VCPInputSource:            "input source",
	VCPAudioVolume:            "audio volume",
	VCPRedBlackLevel:          "red black level",
	VCPGreenBlackLevel:        "green black level",
	VCPBlueBlackLevel:         "blue black level",
	VCPSharpness:              "sharpness",
	VCPAudioMute:              "audio mute",
	VCPHorizontalFrequency:    "horizontal frequency",
	VCPVerticalFrequency:      "vertical frequency",
	VCPSubPixelLayout:         "sub-pixel layout",
	VCPDisplayTechnology:      "display technology type",
	VCPUsageTime:              "display usage time",
	VCPControllerType:         "display controller type",
	VCPFirmwareLevel:          "display firmware level",
	VCPOSD:                    "on screen display",
	VCPOSDLanguage:            "OSD language",
	VCPPowerMode:              "power mode",
	VCPDisplayMode:            "display mode",
	VCPVersion:                "VCP version",
}

// FeatureName returns a human-readable name for a VCP feature code.
// Codes in the manufacturer range (0xE0-0xFF) and unknown codes get a generic name.
func FeatureName(code byte) string {
	if name, ok := featureNames[code]; ok {
		return name
	}
	if code >= 0xE0 {
		return fmt.Sprintf("manufacturer specific 0x%02X", code)
	}
	return fmt.Sprintf("unknown feature 0x%02X", code)
}
