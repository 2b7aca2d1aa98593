// Package export reads and writes the configurator's settings files: a
// raw blob image (.bin), a JSON whole-device export wrapping the blob
// in base64, and a smaller JSON profile file carrying one profile's
// fields for sharing between devices.
//
// Imports are checked, never repaired: a wrong type tag, an unsupported
// version, a mode mismatch or a corrupt payload is a *FileError.
package export

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"

	"github.com/openpad/go-remap/settings"
)

// DeviceFileType tags a whole-device JSON export.
const DeviceFileType = "go-remap/device"

// DeviceFileVersion is the newest device-file format this library
// writes and accepts.
const DeviceFileVersion = 1

type deviceFile struct {
	Type    string `json:"type"`
	Version int    `json:"version"`
	Payload string `json:"payload"`
}

// WriteBlobFile writes a raw settings blob image.
func WriteBlobFile(path string, blob []byte) error {
	if len(blob) != settings.BlobSize {
		return fileErrf("blob", "size %d, expected %d", len(blob), settings.BlobSize)
	}
	return os.WriteFile(path, blob, 0o644)
}

// ReadBlobFile reads a raw settings blob image. The bytes are returned
// as stored; callers parse them with settings.Parse and must check the
// document's CRCValid flag.
func ReadBlobFile(path string) ([]byte, error) {
	blob, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if len(blob) != settings.BlobSize {
		return nil, fileErrf("blob", "size %d, expected %d", len(blob), settings.BlobSize)
	}
	return blob, nil
}

// MarshalDevice wraps a document's encoded blob in the JSON device-file
// envelope. A document whose parsed CRC did not check out is refused,
// so a corrupt dump cannot be laundered into a clean-looking export.
func MarshalDevice(doc *settings.Document) ([]byte, error) {
	if !doc.Header.CRCValid {
		return nil, fileErrf("payload", "document CRC is invalid, refusing to export")
	}

	blob, err := doc.Encode()
	if err != nil {
		return nil, fmt.Errorf("encode settings: %w", err)
	}

	return json.MarshalIndent(deviceFile{
		Type:    DeviceFileType,
		Version: DeviceFileVersion,
		Payload: base64.StdEncoding.EncodeToString(blob),
	}, "", "  ")
}

// UnmarshalDevice parses a JSON device file back into a settings
// document, verifying the envelope and the blob's CRC.
func UnmarshalDevice(data []byte) (*settings.Document, error) {
	var f deviceFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fileErrf("envelope", "not valid JSON: %v", err)
	}
	if f.Type != DeviceFileType {
		return nil, fileErrf("type", "%q, expected %q", f.Type, DeviceFileType)
	}
	if f.Version < 1 || f.Version > DeviceFileVersion {
		return nil, fileErrf("version", "%d, this library handles 1..%d", f.Version, DeviceFileVersion)
	}

	blob, err := base64.StdEncoding.DecodeString(f.Payload)
	if err != nil {
		return nil, fileErrf("payload", "not valid base64: %v", err)
	}

	doc, err := settings.Parse(blob)
	if err != nil {
		return nil, err
	}
	if !doc.Header.CRCValid {
		return nil, fileErrf("payload", "blob CRC mismatch")
	}
	return doc, nil
}

// WriteDeviceFile writes a whole-device JSON export.
func WriteDeviceFile(path string, doc *settings.Document) error {
	data, err := MarshalDevice(doc)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// ReadDeviceFile reads a whole-device JSON export.
func ReadDeviceFile(path string) (*settings.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return UnmarshalDevice(data)
}
