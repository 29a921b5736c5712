package commcell

import (
	"context"

	"github.com/commvault-ps/cvpysdk-sub001/internal/models"
	"github.com/commvault-ps/cvpysdk-sub001/internal/sdkerr"
)

// VirtualServerInstance is the part of a hypervisor instance common to all
// vendors. Vendor packages embed it; see RegisterVirtualServer.
type VirtualServerInstance struct {
	*BaseInstance
	discriminator string
}

// InstanceType returns the vendor module the instance was dispatched on.
func (v *VirtualServerInstance) InstanceType() string {
	return v.discriminator
}

// Settings returns a copy of the virtualServerInstance section.
func (v *VirtualServerInstance) Settings() models.Document {
	return v.props.Object("virtualServerInstance").DeepCopy()
}

// AssociatedClients returns the names of the proxies the instance uses.
func (v *VirtualServerInstance) AssociatedClients() []string {
	var names []string
	for _, m := range v.props.List("virtualServerInstance", "associatedClients", "memberServers") {
		if d, ok := models.AsDocument(m); ok {
			if name := d.String("client", "clientName"); name != "" {
				names = append(names, name)
			}
		}
	}
	return names
}

// ServerName returns the first associated client, the proxy jobs run on by
// default. Vendors report their hypervisor host instead.
func (v *VirtualServerInstance) ServerName() string {
	if names := v.AssociatedClients(); len(names) > 0 {
		return names[0]
	}
	return ""
}

// SetAssociatedClients replaces the instance proxies.
func (v *VirtualServerInstance) SetAssociatedClients(ctx context.Context, clients []string) error {
	if len(clients) == 0 {
		return sdkerr.InvalidArgument(v.entity, "at least one associated client is required")
	}
	members := make([]interface{}, len(clients))
	for i, c := range clients {
		members[i] = models.Document{"client": models.Document{"clientName": c}}
	}
	_, err := v.Apply(ctx, Patch{}.Set("virtualServerInstance.associatedClients.memberServers", members))
	return err
}
