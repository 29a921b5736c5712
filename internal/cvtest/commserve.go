package cvtest

import (
	"encoding/base64"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/commvault-ps/cvpysdk-sub001/internal/models"
)

// Well-known ids of the canned Commserve topology.
const (
	ClientID = "2"

	FileSystemAgentID    = "33"
	VirtualServerAgentID = "106"
	ExchangeDBAgentID    = "53"
	SQLServerAgentID     = "81"

	DefaultInstanceID = "1"
	VMwareInstanceID  = "5"
	HyperVInstanceID  = "6"
	ExoticaInstanceID = "7"
	SQLInstanceID     = "8"

	DefaultBackupsetID = "10"
	SecondBackupsetID  = "11"
	VMBackupsetID      = "20"

	DefaultSubclientID = "12"
	DocsSubclientID    = "13"
	OtherSubclientID   = "14"
	VMSubclientID      = "21"

	NightlyTaskID = "50"
)

type agentRec struct {
	id, name string
	props    models.Document
}

type instanceRec struct {
	id, name, agentID string
	vsType            int
	props             models.Document
}

type backupsetRec struct {
	id, name, instanceID string
	isDefault            bool
	props                models.Document
}

type subclientRec struct {
	id, name, backupsetID string
	props                 models.Document
}

type credentialRec struct {
	id                                int
	name, user, password, description string
	recordType                        int
}

// Commserve is a stateful fake with one client, its agents, instances,
// backupsets and subclients, a credential store and one schedule.
type Commserve struct {
	*Server

	mu          sync.Mutex
	clientProps models.Document
	agents      map[string]*agentRec
	instances   map[string]*instanceRec
	backupsets  map[string]*backupsetRec
	subclients  map[string]*subclientRec
	credentials map[int]*credentialRec
	nextCredID  int
	nextSubID   int
	nextJobID   int
}

// NewCommserve starts the canned topology.
func NewCommserve(t testing.TB) *Commserve {
	cs := &Commserve{
		Server:      NewServer(t),
		agents:      make(map[string]*agentRec),
		instances:   make(map[string]*instanceRec),
		backupsets:  make(map[string]*backupsetRec),
		subclients:  make(map[string]*subclientRec),
		credentials: make(map[int]*credentialRec),
		nextCredID:  1,
		nextSubID:   100,
		nextJobID:   1000,
	}
	cs.seed()
	cs.routes()
	return cs
}

func (cs *Commserve) seed() {
	cs.clientProps = models.Document{
		"client": models.Document{
			"clientEntity": models.Document{"clientName": "client1", "clientId": 2, "hostName": "client1.lab.local"},
			"clientDescription": "",
		},
		"pseudoClientInfo": models.Document{"clientType": 0},
	}
	for _, a := range []struct{ id, name string }{
		{FileSystemAgentID, "File System"},
		{VirtualServerAgentID, "Virtual Server"},
		{ExchangeDBAgentID, "Exchange Database"},
		{SQLServerAgentID, "SQL Server"},
	} {
		cs.agents[a.id] = &agentRec{id: a.id, name: a.name, props: agentProps(a.id, a.name)}
	}
	for _, i := range []struct {
		id, name, agentID string
		vsType            int
	}{
		{DefaultInstanceID, "DefaultInstanceName", FileSystemAgentID, 0},
		{VMwareInstanceID, "VMware", VirtualServerAgentID, 101},
		{HyperVInstanceID, "Hyper-V", VirtualServerAgentID, 102},
		{ExoticaInstanceID, "Exotica", VirtualServerAgentID, 0},
		{SQLInstanceID, "SQLINST", SQLServerAgentID, 0},
	} {
		cs.instances[i.id] = &instanceRec{id: i.id, name: i.name, agentID: i.agentID, vsType: i.vsType,
			props: cs.instanceProps(i.id, i.name, i.agentID, i.vsType)}
	}
	for _, b := range []struct {
		id, name, instanceID string
		isDefault            bool
	}{
		{DefaultBackupsetID, "defaultBackupSet", DefaultInstanceID, true},
		{SecondBackupsetID, "bs2", DefaultInstanceID, false},
		{VMBackupsetID, "defaultBackupSet", VMwareInstanceID, true},
	} {
		rec := &backupsetRec{id: b.id, name: b.name, instanceID: b.instanceID, isDefault: b.isDefault}
		rec.props = cs.backupsetProps(rec)
		cs.backupsets[b.id] = rec
	}
	for _, s := range []struct{ id, name, backupsetID string }{
		{DefaultSubclientID, "default", DefaultBackupsetID},
		{DocsSubclientID, "docs", DefaultBackupsetID},
		{OtherSubclientID, "default", SecondBackupsetID},
		{VMSubclientID, "default", VMBackupsetID},
	} {
		rec := &subclientRec{id: s.id, name: s.name, backupsetID: s.backupsetID}
		rec.props = cs.subclientProps(rec, models.Document{"enableBackup": true, "description": ""})
		cs.subclients[s.id] = rec
	}
}

func agentProps(id, name string) models.Document {
	appID, _ := strconv.Atoi(id)
	return models.Document{
		"idaEntity": models.Document{"clientName": "client1", "clientId": 2, "appName": name, "applicationId": appID},
		"AgentProperties": models.Document{"isMarkedDeleted": false},
		"idaActivityControl": models.Document{
			"activityControlOptions": []interface{}{
				models.Document{"activityType": 1, "enableActivityType": true, "enableAfterADelay": false},
				models.Document{"activityType": 2, "enableActivityType": true, "enableAfterADelay": false},
			},
		},
	}
}

func (cs *Commserve) instanceProps(id, name, agentID string, vsType int) models.Document {
	appID, _ := strconv.Atoi(agentID)
	instID, _ := strconv.Atoi(id)
	doc := models.Document{
		"instance": models.Document{
			"clientName": "client1", "clientId": 2,
			"appName": cs.agents[agentID].name, "applicationId": appID,
			"instanceName": name, "instanceId": instID,
		},
		"instanceActivityControl": models.Document{},
	}
	switch vsType {
	case 101:
		doc["virtualServerInstance"] = models.Document{
			"vsInstanceType": vsType,
			"vmwareVendor":   models.Document{"virtualCenter": models.Document{"domainName": "vcenter.lab.local", "userName": "administrator@vsphere.local"}},
			"associatedClients": models.Document{"memberServers": []interface{}{
				models.Document{"client": models.Document{"clientName": "proxy1", "clientId": 3}},
			}},
		}
	case 102:
		doc["virtualServerInstance"] = models.Document{
			"vsInstanceType": vsType,
			"hyperV":         models.Document{"serverName": "hv-cluster"},
		}
	case 0:
		if agentID == VirtualServerAgentID {
			doc["virtualServerInstance"] = models.Document{}
		}
	}
	return doc
}

func (cs *Commserve) backupsetProps(b *backupsetRec) models.Document {
	inst := cs.instances[b.instanceID]
	id, _ := strconv.Atoi(b.id)
	instID, _ := strconv.Atoi(inst.id)
	return models.Document{
		"backupSetEntity": models.Document{
			"clientName": "client1", "appName": cs.agents[inst.agentID].name,
			"instanceName": inst.name, "instanceId": instID,
			"backupsetName": b.name, "backupsetId": id,
		},
		"commonBackupSet": models.Document{"isDefaultBackupSet": b.isDefault},
		"userDescription": "",
	}
}

func (cs *Commserve) subclientProps(s *subclientRec, common models.Document) models.Document {
	bs := cs.backupsets[s.backupsetID]
	inst := cs.instances[bs.instanceID]
	id, _ := strconv.Atoi(s.id)
	bsID, _ := strconv.Atoi(bs.id)
	appID, _ := strconv.Atoi(inst.agentID)
	return models.Document{
		"subClientEntity": models.Document{
			"clientName": "client1", "clientId": 2,
			"appName": cs.agents[inst.agentID].name, "applicationId": appID,
			"instanceName": inst.name, "backupsetName": bs.name, "backupsetId": bsID,
			"subclientName": s.name, "subclientId": id,
		},
		"commonProperties": common,
		"content":          []interface{}{models.Document{"path": "C:\\data"}},
	}
}

func (cs *Commserve) routes() {
	cs.JSON(http.MethodPost, "Login", models.Document{"token": "QSDK fake", "userName": "admin"})

	cs.Handle(http.MethodGet, "Client", func(w http.ResponseWriter, r *http.Request) {
		cs.mu.Lock()
		defer cs.mu.Unlock()
		WriteJSON(w, http.StatusOK, models.Document{"clientProperties": []interface{}{
			models.Document{"client": models.Document{"clientEntity": cs.clientProps.Object("client", "clientEntity").DeepCopy()}},
		}})
	})
	cs.Handle(http.MethodGet, "Client/{id}", func(w http.ResponseWriter, r *http.Request) {
		if chi.URLParam(r, "id") != ClientID {
			WriteJSON(w, http.StatusOK, models.Document{"errorCode": 2, "errorMessage": "Client not found"})
			return
		}
		cs.mu.Lock()
		defer cs.mu.Unlock()
		WriteJSON(w, http.StatusOK, models.Document{"clientProperties": []interface{}{cs.clientProps.DeepCopy()}})
	})

	cs.Handle(http.MethodPost, "Client/{id}", cs.postClient)

	cs.Handle(http.MethodGet, "Agent", cs.getAgents)
	cs.Handle(http.MethodPost, "Agent", cs.postAgent)

	cs.Handle(http.MethodGet, "Instance", cs.getInstances)
	cs.Handle(http.MethodGet, "Instance/{id}", cs.getInstance)
	cs.Handle(http.MethodPost, "Instance/{id}", cs.postInstance)

	cs.Handle(http.MethodGet, "Backupset", cs.getBackupsets)
	cs.Handle(http.MethodGet, "Backupset/{id}", cs.getBackupset)
	cs.Handle(http.MethodPost, "Backupset/{id}", cs.postBackupset)

	cs.Handle(http.MethodGet, "Subclient", cs.getSubclients)
	cs.Handle(http.MethodPost, "Subclient", cs.addSubclient)
	cs.Handle(http.MethodGet, "Subclient/{id}", cs.getSubclient)
	cs.Handle(http.MethodPost, "Subclient/{id}", cs.postSubclient)
	cs.Handle(http.MethodDelete, "Subclient/{id}", cs.deleteSubclient)
	cs.Handle(http.MethodPost, "Subclient/{id}/action/backup", func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, http.StatusOK, models.Document{"jobIds": []interface{}{cs.NextJobID()}})
	})
	cs.Handle(http.MethodPost, "CreateTask", func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, http.StatusOK, models.Document{"jobIds": []interface{}{cs.NextJobID()}})
	})

	cs.Handle(http.MethodGet, "CommCell/Credentials", cs.getCredentials)
	cs.Handle(http.MethodPost, "Credential", cs.addCredential)
	cs.Handle(http.MethodPut, "Credential", cs.updateCredential)
	cs.Handle(http.MethodPost, "Credential/action/delete", cs.deleteCredential)
	cs.Handle(http.MethodGet, "V4/Credential/{id}", cs.getCredential)

	cs.JSON(http.MethodGet, "Schedules", models.Document{"taskDetail": []interface{}{
		models.Document{
			"task":     models.Document{"taskId": 50, "taskName": "nightly", "taskType": 2},
			"subTasks": []interface{}{models.Document{"subTask": models.Document{"subTaskName": "nightly", "subTaskType": 2, "operationType": 2}}},
		},
	}})
	cs.Handle(http.MethodGet, "Job/{id}", func(w http.ResponseWriter, r *http.Request) {
		id, _ := strconv.Atoi(chi.URLParam(r, "id"))
		WriteJSON(w, http.StatusOK, models.Document{"jobs": []interface{}{
			models.Document{"jobSummary": models.Document{"jobId": id, "status": "Running", "jobType": "Backup"}},
		}})
	})
}

func (cs *Commserve) postClient(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	body := cs.lastBody(http.MethodPost, "Client/"+id)
	cs.mu.Lock()
	defer cs.mu.Unlock()
	if id != ClientID {
		WriteJSON(w, http.StatusOK, Failure(2, "Client not found"))
		return
	}
	props := body.Object("clientProperties")
	if desc, ok := props.Lookup("client", "clientDescription").(string); ok {
		cs.clientProps.Object("client")["clientDescription"] = desc
	}
	WriteJSON(w, http.StatusOK, Success())
}

// NextJobID allocates a job id.
func (cs *Commserve) NextJobID() string {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	cs.nextJobID++
	return strconv.Itoa(cs.nextJobID)
}

func (cs *Commserve) getAgents(w http.ResponseWriter, r *http.Request) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	q := r.URL.Query()
	if q.Get("clientId") != ClientID {
		WriteJSON(w, http.StatusOK, models.Document{"agentProperties": []interface{}{}})
		return
	}
	if appID := q.Get("applicationId"); appID != "" {
		a, ok := cs.agents[appID]
		if !ok {
			WriteJSON(w, http.StatusOK, models.Document{"errorCode": 2, "errorMessage": "Agent not found"})
			return
		}
		WriteJSON(w, http.StatusOK, models.Document{"agentProperties": []interface{}{a.props.DeepCopy()}})
		return
	}
	var list []interface{}
	for _, id := range sortedKeys(cs.agents) {
		list = append(list, models.Document{"idaEntity": cs.agents[id].props.Object("idaEntity").DeepCopy()})
	}
	WriteJSON(w, http.StatusOK, models.Document{"agentProperties": list})
}

// postAgent handles both property updates and activity control requests.
func (cs *Commserve) postAgent(w http.ResponseWriter, r *http.Request) {
	body := cs.lastBody(http.MethodPost, "Agent")
	cs.mu.Lock()
	defer cs.mu.Unlock()

	if ap := body.Object("agentProperties"); ap != nil {
		a := cs.agentByName(ap.String("idaEntity", "appName"))
		if a == nil {
			WriteJSON(w, http.StatusOK, Failure(2, "Agent not found"))
			return
		}
		if opts := ap.List("idaActivityControl", "activityControlOptions"); len(opts) > 0 {
			current := a.props.List("idaActivityControl", "activityControlOptions")
			for _, o := range opts {
				od, _ := models.AsDocument(o)
				for _, c := range current {
					cd, _ := models.AsDocument(c)
					if cd.Int("activityType") == od.Int("activityType") {
						cd["enableActivityType"] = od.Bool("enableActivityType")
						cd["enableAfterADelay"] = od.Bool("enableAfterADelay")
					}
				}
			}
		}
		if props := ap.Object("AgentProperties"); len(props) > 0 {
			a.props.Object("AgentProperties").Merge(props.DeepCopy())
		}
		WriteJSON(w, http.StatusOK, Success())
		return
	}
	WriteJSON(w, http.StatusOK, Failure(1, "Invalid request"))
}

func (cs *Commserve) agentByName(name string) *agentRec {
	for _, a := range cs.agents {
		if strings.EqualFold(a.name, name) {
			return a
		}
	}
	return nil
}

func (cs *Commserve) getInstances(w http.ResponseWriter, r *http.Request) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	appID := r.URL.Query().Get("applicationId")
	list := []interface{}{}
	for _, id := range sortedKeys(cs.instances) {
		inst := cs.instances[id]
		if inst.agentID != appID {
			continue
		}
		entry := models.Document{"instance": inst.props.Object("instance").DeepCopy()}
		if inst.vsType != 0 {
			entry["virtualServerInstance"] = models.Document{"vsInstanceType": inst.vsType}
		}
		list = append(list, entry)
	}
	WriteJSON(w, http.StatusOK, models.Document{"instanceProperties": list})
}

func (cs *Commserve) getInstance(w http.ResponseWriter, r *http.Request) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	inst, ok := cs.instances[chi.URLParam(r, "id")]
	if !ok {
		WriteJSON(w, http.StatusOK, models.Document{"errorCode": 2, "errorMessage": "Instance not found"})
		return
	}
	WriteJSON(w, http.StatusOK, models.Document{"instanceProperties": []interface{}{inst.props.DeepCopy()}})
}

func (cs *Commserve) postInstance(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	body := cs.lastBody(http.MethodPost, "Instance/"+id)
	cs.mu.Lock()
	defer cs.mu.Unlock()
	inst, ok := cs.instances[id]
	if !ok {
		WriteJSON(w, http.StatusOK, Failure(2, "Instance not found"))
		return
	}
	for k, v := range body.Object("instanceProperties") {
		if k == "instance" {
			continue
		}
		inst.props[k] = v
	}
	WriteJSON(w, http.StatusOK, Success())
}

func (cs *Commserve) getBackupsets(w http.ResponseWriter, r *http.Request) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	appID := r.URL.Query().Get("applicationId")
	list := []interface{}{}
	for _, id := range sortedKeys(cs.backupsets) {
		b := cs.backupsets[id]
		if cs.instances[b.instanceID].agentID != appID {
			continue
		}
		list = append(list, models.Document{
			"backupSetEntity": b.props.Object("backupSetEntity").DeepCopy(),
			"commonBackupSet": b.props.Object("commonBackupSet").DeepCopy(),
		})
	}
	WriteJSON(w, http.StatusOK, models.Document{"backupsetProperties": list})
}

func (cs *Commserve) getBackupset(w http.ResponseWriter, r *http.Request) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	b, ok := cs.backupsets[chi.URLParam(r, "id")]
	if !ok {
		WriteJSON(w, http.StatusOK, models.Document{"errorCode": 2, "errorMessage": "Backupset not found"})
		return
	}
	WriteJSON(w, http.StatusOK, models.Document{"backupsetProperties": []interface{}{b.props.DeepCopy()}})
}

func (cs *Commserve) postBackupset(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	body := cs.lastBody(http.MethodPost, "Backupset/"+id)
	cs.mu.Lock()
	defer cs.mu.Unlock()
	b, ok := cs.backupsets[id]
	if !ok {
		WriteJSON(w, http.StatusOK, Failure(2, "Backupset not found"))
		return
	}
	for k, v := range body.Object("backupsetProperties") {
		if k == "backupSetEntity" {
			continue
		}
		b.props[k] = v
	}
	if common := b.props.Object("commonBackupSet"); common.String("newBackupSetName") != "" {
		b.name = common.String("newBackupSetName")
		delete(common, "newBackupSetName")
		b.props.Object("backupSetEntity")["backupsetName"] = b.name
	}
	WriteJSON(w, http.StatusOK, Success())
}

func (cs *Commserve) getSubclients(w http.ResponseWriter, r *http.Request) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	q := r.URL.Query()
	list := []interface{}{}
	for _, id := range sortedKeys(cs.subclients) {
		s := cs.subclients[id]
		bs := cs.backupsets[s.backupsetID]
		if cs.instances[bs.instanceID].agentID != q.Get("applicationId") {
			continue
		}
		if want := q.Get("backupsetId"); want != "" && want != bs.id {
			continue
		}
		if want := q.Get("instanceId"); want != "" && want != bs.instanceID {
			continue
		}
		list = append(list, models.Document{"subClientEntity": s.props.Object("subClientEntity").DeepCopy()})
	}
	WriteJSON(w, http.StatusOK, models.Document{"subClientProperties": list})
}

func (cs *Commserve) getSubclient(w http.ResponseWriter, r *http.Request) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	s, ok := cs.subclients[chi.URLParam(r, "id")]
	if !ok {
		WriteJSON(w, http.StatusOK, models.Document{"errorCode": 2, "errorMessage": "Subclient not found"})
		return
	}
	WriteJSON(w, http.StatusOK, models.Document{"subClientProperties": []interface{}{s.props.DeepCopy()}})
}

func (cs *Commserve) postSubclient(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	body := cs.lastBody(http.MethodPost, "Subclient/"+id)
	cs.mu.Lock()
	defer cs.mu.Unlock()
	s, ok := cs.subclients[id]
	if !ok {
		WriteJSON(w, http.StatusOK, Failure(2, "Subclient not found"))
		return
	}
	if newName := body.String("newName"); newName != "" {
		s.name = newName
		s.props.Object("subClientEntity")["subclientName"] = newName
	}
	for k, v := range body.Object("subClientProperties") {
		if k == "subClientEntity" {
			continue
		}
		s.props[k] = v
	}
	WriteJSON(w, http.StatusOK, Success())
}

func (cs *Commserve) addSubclient(w http.ResponseWriter, r *http.Request) {
	body := cs.lastBody(http.MethodPost, "Subclient")
	cs.mu.Lock()
	defer cs.mu.Unlock()
	entity := body.Object("subClientProperties", "subClientEntity")
	bsName := entity.String("backupsetName")
	var bs *backupsetRec
	for _, b := range cs.backupsets {
		inst := cs.instances[b.instanceID]
		if strings.EqualFold(b.name, bsName) && strings.EqualFold(inst.name, entity.String("instanceName")) &&
			strings.EqualFold(cs.agents[inst.agentID].name, entity.String("appName")) {
			bs = b
		}
	}
	if bs == nil {
		WriteJSON(w, http.StatusOK, models.Document{"response": models.Document{"errorCode": 2, "errorString": "Backupset not found"}})
		return
	}
	cs.nextSubID++
	rec := &subclientRec{id: strconv.Itoa(cs.nextSubID), name: entity.String("subclientName"), backupsetID: bs.id}
	common := body.Object("subClientProperties", "commonProperties")
	if common == nil {
		common = models.Document{}
	}
	rec.props = cs.subclientProps(rec, common.DeepCopy())
	cs.subclients[rec.id] = rec
	WriteJSON(w, http.StatusOK, models.Document{"response": models.Document{
		"errorCode": 0,
		"entity":    models.Document{"subclientId": cs.nextSubID, "subclientName": rec.name},
	}})
}

func (cs *Commserve) deleteSubclient(w http.ResponseWriter, r *http.Request) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	id := chi.URLParam(r, "id")
	if _, ok := cs.subclients[id]; !ok {
		WriteJSON(w, http.StatusOK, models.Document{"response": []interface{}{models.Document{"errorCode": 2, "errorString": "Subclient not found"}}})
		return
	}
	delete(cs.subclients, id)
	WriteJSON(w, http.StatusOK, models.Document{"response": []interface{}{models.Document{"errorCode": 0}}})
}

func (cs *Commserve) getCredentials(w http.ResponseWriter, r *http.Request) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	list := []interface{}{}
	ids := make([]int, 0, len(cs.credentials))
	for id := range cs.credentials {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	for _, id := range ids {
		c := cs.credentials[id]
		list = append(list, models.Document{
			"recordType":       c.recordType,
			"credentialRecord": models.Document{"credentialId": c.id, "credentialName": c.name},
		})
	}
	WriteJSON(w, http.StatusOK, models.Document{"credentialRecordInfo": list})
}

func (cs *Commserve) addCredential(w http.ResponseWriter, r *http.Request) {
	body := cs.lastBody(http.MethodPost, "Credential")
	cs.mu.Lock()
	defer cs.mu.Unlock()
	for _, item := range body.List("credentialRecordInfo") {
		info, _ := models.AsDocument(item)
		name := info.String("credentialRecord", "credentialName")
		for _, c := range cs.credentials {
			if strings.EqualFold(c.name, name) {
				WriteJSON(w, http.StatusOK, models.Document{"error": models.Document{"errorCode": 3, "errorMessage": "Credential already exists"}})
				return
			}
		}
		pw, _ := base64.StdEncoding.DecodeString(info.String("record", "password"))
		cs.credentials[cs.nextCredID] = &credentialRec{
			id: cs.nextCredID, name: name,
			user: info.String("record", "userName"), password: string(pw),
			description: info.String("description"), recordType: info.Int("recordType"),
		}
		cs.nextCredID++
	}
	WriteJSON(w, http.StatusOK, models.Document{"error": models.Document{"errorCode": 0}})
}

func (cs *Commserve) updateCredential(w http.ResponseWriter, r *http.Request) {
	body := cs.lastBody(http.MethodPut, "Credential")
	cs.mu.Lock()
	defer cs.mu.Unlock()
	for _, item := range body.List("credentialRecordInfo") {
		info, _ := models.AsDocument(item)
		c, ok := cs.credentials[info.Int("credentialRecord", "credentialId")]
		if !ok {
			WriteJSON(w, http.StatusOK, models.Document{"error": models.Document{"errorCode": 2, "errorMessage": "Credential not found"}})
			return
		}
		if n := info.String("credentialRecord", "credentialName"); n != "" {
			c.name = n
		}
		if u := info.String("record", "userName"); u != "" {
			c.user = u
		}
		if p := info.String("record", "password"); p != "" {
			pw, _ := base64.StdEncoding.DecodeString(p)
			c.password = string(pw)
		}
		if info.Has("description") {
			c.description = info.String("description")
		}
	}
	WriteJSON(w, http.StatusOK, models.Document{"error": models.Document{"errorCode": 0}})
}

func (cs *Commserve) deleteCredential(w http.ResponseWriter, r *http.Request) {
	body := cs.lastBody(http.MethodPost, "Credential/action/delete")
	cs.mu.Lock()
	defer cs.mu.Unlock()
	for _, item := range body.List("credentialRecordInfo") {
		info, _ := models.AsDocument(item)
		name := info.String("credentialRecord", "credentialName")
		for id, c := range cs.credentials {
			if strings.EqualFold(c.name, name) {
				delete(cs.credentials, id)
			}
		}
	}
	WriteJSON(w, http.StatusOK, models.Document{"error": models.Document{"errorCode": 0}})
}

func (cs *Commserve) getCredential(w http.ResponseWriter, r *http.Request) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	id, _ := strconv.Atoi(chi.URLParam(r, "id"))
	c, ok := cs.credentials[id]
	if !ok {
		WriteJSON(w, http.StatusNotFound, models.Document{"errorCode": 2, "errorMessage": "Credential not found"})
		return
	}
	account := "WINDOWS_ACCOUNT"
	if c.recordType == 2 {
		account = "LINUX_ACCOUNT"
	}
	WriteJSON(w, http.StatusOK, models.Document{
		"id": c.id, "name": c.name, "userAccount": c.user, "accountType": account,
		"description": c.description,
		"security":    models.Document{"associations": []interface{}{}},
	})
}

// AddCredential seeds a credential directly.
func (cs *Commserve) AddCredential(name, user string) int {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	id := cs.nextCredID
	cs.credentials[id] = &credentialRec{id: id, name: name, user: user, recordType: 1}
	cs.nextCredID++
	return id
}

// SetClientType changes the client's pseudo-client type.
func (cs *Commserve) SetClientType(clientType int) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	cs.clientProps.Object("pseudoClientInfo")["clientType"] = clientType
}

// SubclientProperty returns a top-level property of a stored subclient.
func (cs *Commserve) SubclientProperty(id, key string) interface{} {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	s, ok := cs.subclients[id]
	if !ok {
		return nil
	}
	return s.props.DeepCopy()[key]
}

// lastBody returns the decoded body of the request currently being served.
func (cs *Commserve) lastBody(method, path string) models.Document {
	req, ok := cs.Last(method, path)
	if !ok || req.Body == nil {
		return models.Document{}
	}
	return req.Body
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, _ := strconv.Atoi(keys[i])
		b, _ := strconv.Atoi(keys[j])
		return a < b
	})
	return keys
}

// String renders a request for failure messages.
func (r Request) String() string {
	return fmt.Sprintf("%s %s?%s", r.Method, r.Path, r.Query.Encode())
}
