// Package virtualserver holds the hypervisor vendors of virtual server
// instances. Importing it registers every vendor with the commcell package.
package virtualserver

import "github.com/commvault-ps/cvpysdk-sub001/internal/commcell"

func init() {
	commcell.RegisterVirtualServer("vmware", func(base *commcell.VirtualServerInstance) (commcell.Instance, error) {
		return &VMwareInstance{VirtualServerInstance: base}, nil
	})
	commcell.RegisterVirtualServer("hyperv", func(base *commcell.VirtualServerInstance) (commcell.Instance, error) {
		return &HyperVInstance{VirtualServerInstance: base}, nil
	})
	commcell.RegisterVirtualServer("amazon_web_services", func(base *commcell.VirtualServerInstance) (commcell.Instance, error) {
		return &AmazonInstance{VirtualServerInstance: base}, nil
	})
}
