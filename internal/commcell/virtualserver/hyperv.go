package virtualserver

import "github.com/commvault-ps/cvpysdk-sub001/internal/commcell"

// HyperVInstance is a Hyper-V host or cluster instance.
type HyperVInstance struct {
	*commcell.VirtualServerInstance
}

// ServerName returns the Hyper-V host or cluster name, falling back to the
// first proxy.
func (h *HyperVInstance) ServerName() string {
	if name := h.Settings().String("hyperV", "serverName"); name != "" {
		return name
	}
	return h.VirtualServerInstance.ServerName()
}
