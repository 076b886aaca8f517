package hmd

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// openVRInitErrors maps the EVRInitError codes that mean something other than a failed open.
// The runtime reports them either as an English description ending in "(code)" or as the
// symbol name.
var openVRInitErrors = map[int]struct {
	symbol string
	result error
}{
	100: {"Init_InstallationNotFound", ErrDriverUnavailable},
	101: {"Init_InstallationCorrupt", ErrDriverUnavailable},
	102: {"Init_VRClientDLLNotFound", ErrDriverUnavailable},
	103: {"Init_FileNotFound", ErrDriverUnavailable},
	104: {"Init_FactoryNotFound", ErrDriverUnavailable},
	105: {"Init_InterfaceNotFound", ErrDriverUnavailable},
	108: {"Init_HmdNotFound", nil},
	110: {"Init_PathRegistryNotFound", ErrDriverUnavailable},
	121: {"Init_NoServerForBackgroundApp", ErrDriverUnavailable},
	125: {"Init_HmdDriverIdIsNone", nil},
	126: {"Init_HmdNotFoundPresenceFailed", nil},
	127: {"Init_VRMonitorNotFound", ErrDriverUnavailable},
	203: {"Driver_NotLoaded", ErrDriverUnavailable},
	206: {"Driver_HmdDisplayNotFound", nil},
	300: {"IPC_ServerInitFailed", ErrDriverUnavailable},
	301: {"IPC_ConnectFailed", ErrDriverUnavailable},
}

var openVRInitCode = regexp.MustCompile(`\((\d+)\)\s*$`)

// openVRInitResult turns the outcome of vr.Init into the result of Open.
//
// Parameters:
//   - err: the error returned by vr.Init
//   - hasSystem: whether vr.Init returned a system
//
// Returns:
//   - bool: true if the runtime is up with a headset attached
//   - error: nil when no headset is attached, ErrDriverUnavailable when the runtime is
//     missing or not running, ErrDeviceOpen otherwise
func openVRInitResult(err error, hasSystem bool) (bool, error) {
	if err == nil {
		if !hasSystem {
			return false, fmt.Errorf("%w: vr.Init returned no system", ErrDeviceOpen)
		}
		return true, nil
	}

	code, ok := openVRInitErrorCode(err.Error())
	if !ok {
		return false, fmt.Errorf("%w: vr.Init: %v", ErrDeviceOpen, err)
	}
	if result := openVRInitErrors[code].result; result != nil {
		return false, fmt.Errorf("%w: vr.Init: %v", result, err)
	}
	return false, nil
}

// openVRInitErrorCode finds the EVRInitError code in a vr.Init message, if it is one of the
// codes in openVRInitErrors.
func openVRInitErrorCode(msg string) (int, bool) {
	if m := openVRInitCode.FindStringSubmatch(msg); m != nil {
		if code, err := strconv.Atoi(m[1]); err == nil {
			_, ok := openVRInitErrors[code]
			return code, ok
		}
	}
	for code, e := range openVRInitErrors {
		if strings.HasSuffix(msg, e.symbol) {
			return code, true
		}
	}
	return 0, false
}
