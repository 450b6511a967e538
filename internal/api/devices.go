package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/genlink-bridge/internal/device"
	"github.com/nerrad567/genlink-bridge/internal/generator"
)

// deviceView is the JSON form of a registry handle.
type deviceView struct {
	ID              string         `json:"id"`
	VendorID        string         `json:"vendor_id"`
	Name            string         `json:"name"`
	Kind            generator.Kind `json:"kind"`
	Model           string         `json:"model,omitempty"`
	SerialNumber    string         `json:"serial_number,omitempty"`
	FirmwareVersion string         `json:"firmware_version,omitempty"`

	// On is null while the generator reports a fault or before the first publish.
	On         *bool                 `json:"on"`
	Attributes *generator.Attributes `json:"attributes,omitempty"`

	// Pending is true when the next sighting will publish regardless of change.
	Pending bool `json:"pending"`
}

func newDeviceView(h *device.Handle) deviceView {
	v := deviceView{
		ID:              h.ID,
		VendorID:        h.VendorID,
		Name:            h.Name(),
		Kind:            h.Latest.Kind,
		Model:           h.Latest.Model,
		SerialNumber:    h.Latest.SerialNumber,
		FirmwareVersion: h.Latest.FirmwareVersion,
		Attributes:      h.Attributes,
		Pending:         h.NeedsRefresh,
	}
	if h.Attributes != nil {
		if on, err := h.Attributes.On(); err == nil {
			v.On = &on
		}
	}
	return v
}

// handleListDevices returns every known device ordered by ID.
func (s *Server) handleListDevices(w http.ResponseWriter, _ *http.Request) {
	handles := s.devices.Handles()

	devices := make([]deviceView, 0, len(handles))
	for _, h := range handles {
		devices = append(devices, newDeviceView(h))
	}
	writeJSON(w, http.StatusOK, map[string]any{"devices": devices, "count": len(devices)})
}

// handleGetDevice returns a single device by ID.
func (s *Server) handleGetDevice(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	h, ok := s.devices.Lookup(id)
	if !ok {
		writeNotFound(w, "device not found")
		return
	}
	writeJSON(w, http.StatusOK, newDeviceView(h))
}
