package virtualserver

import "github.com/commvault-ps/cvpysdk-sub001/internal/commcell"

// VMwareInstance is a vCenter instance.
type VMwareInstance struct {
	*commcell.VirtualServerInstance
}

// VCenter returns the vCenter host name.
func (v *VMwareInstance) VCenter() string {
	return v.Settings().String("vmwareVendor", "virtualCenter", "domainName")
}

// Username returns the account used against vCenter.
func (v *VMwareInstance) Username() string {
	return v.Settings().String("vmwareVendor", "virtualCenter", "userName")
}

// ServerName returns the vCenter host name.
func (v *VMwareInstance) ServerName() string {
	return v.VCenter()
}
