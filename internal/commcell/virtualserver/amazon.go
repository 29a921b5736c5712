package virtualserver

import "github.com/commvault-ps/cvpysdk-sub001/internal/commcell"

// AmazonInstance is an Amazon Web Services instance.
type AmazonInstance struct {
	*commcell.VirtualServerInstance
}

// AccessKey returns the access key the instance authenticates with, empty
// for IAM role based instances.
func (a *AmazonInstance) AccessKey() string {
	return a.Settings().String("amazonInstanceInfo", "accessKey")
}

// UseIAMRole reports whether the instance authenticates through the proxy's IAM role.
func (a *AmazonInstance) UseIAMRole() bool {
	return a.Settings().Bool("amazonInstanceInfo", "useIamRole")
}
