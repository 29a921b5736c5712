package commcell

import "fmt"

// Service paths, relative to the API root.
const (
	svcClients = "Client"
	svcClient  = "Client/%s"

	svcAgents = "Agent?clientId=%s"
	svcAgent  = "Agent?clientId=%s&applicationId=%s"
	// svcAgentAction receives agent updates and activity control requests.
	svcAgentAction = "Agent"

	svcInstances = "Instance?clientId=%s&applicationId=%s"
	svcInstance  = "Instance/%s"

	svcBackupsets = "Backupset?clientId=%s&applicationId=%s"
	svcBackupset  = "Backupset/%s"

	svcSubclientsByBackupset = "Subclient?clientId=%s&applicationId=%s&backupsetId=%s"
	svcSubclientsByInstance  = "Subclient?clientId=%s&applicationId=%s&instanceId=%s"
	svcSubclient             = "Subclient/%s"
	svcAddSubclient          = "Subclient"
	svcSubclientBackup       = "Subclient/%s/action/backup?backupLevel=%s"

	svcCreateTask = "CreateTask"

	svcCredentials      = "CommCell/Credentials"
	svcCredential       = "Credential"
	svcDeleteCredential = "Credential/action/delete"
	svcCredentialDetail = "V4/Credential/%s"

	svcSchedules = "Schedules"
	svcJob       = "Job/%s"
)

func endpoint(template string, args ...interface{}) string {
	return fmt.Sprintf(template, args...)
}
