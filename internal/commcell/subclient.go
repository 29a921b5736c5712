package commcell

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/commvault-ps/cvpysdk-sub001/internal/models"
	"github.com/commvault-ps/cvpysdk-sub001/internal/schedpattern"
	"github.com/commvault-ps/cvpysdk-sub001/internal/sdkerr"
	"github.com/commvault-ps/cvpysdk-sub001/internal/taskgraph"
)

// Subclient is implemented by every subclient variant.
type Subclient interface {
	Entity
	Agent() Agent
	Description() string
	IsBackupEnabled() bool
	EnableBackup(ctx context.Context) error
	DisableBackup(ctx context.Context) error
	EnableBackupAtTime(ctx context.Context, at string) error
	SetDescription(ctx context.Context, description string) error
	SetName(ctx context.Context, name string) error
	Backup(ctx context.Context, level string) (*Handle, error)
	BackupWithOptions(ctx context.Context, opts BackupOptions) (*Handle, error)
}

// Subclients is the registry of subclients of one backupset, or of every
// backupset of an instance. Instance-wide listings that span backupsets key
// each subclient as "backupset\name".
type Subclients struct {
	*Registry
	agent     Agent
	backupset *Backupset
}

// NewSubclients loads the subclients of backupset.
func NewSubclients(ctx context.Context, backupset *Backupset) (*Subclients, error) {
	agent := backupset.agent
	path := endpoint(svcSubclientsByBackupset, agent.Client().ID(), agent.ID(), backupset.ID())
	reg, err := newSubclientRegistry(ctx, agent, path)
	if err != nil {
		return nil, err
	}
	return &Subclients{Registry: reg, agent: agent, backupset: backupset}, nil
}

// NewInstanceSubclients loads the subclients of every backupset of instance.
// The registry is read-only: Add and Delete need a backupset.
func NewInstanceSubclients(ctx context.Context, agent Agent, instance Instance) (*Subclients, error) {
	path := endpoint(svcSubclientsByInstance, agent.Client().ID(), agent.ID(), instance.ID())
	reg, err := newSubclientRegistry(ctx, agent, path)
	if err != nil {
		return nil, err
	}
	return &Subclients{Registry: reg, agent: agent}, nil
}

func newSubclientRegistry(ctx context.Context, agent Agent, path string) (*Registry, error) {
	cc := agent.Client().cc
	return newRegistry(ctx, "Subclient", func(ctx context.Context) (Listing, error) {
		doc, err := cc.get(ctx, "Subclient", path)
		if err != nil {
			return nil, err
		}
		items, err := listElements("Subclient", doc, "subClientProperties", false)
		if err != nil {
			return nil, cc.fail("Subclient", err)
		}
		entries := make([]Entry, 0, len(items))
		for _, item := range items {
			ent := item.Object("subClientEntity")
			entries = append(entries, Entry{
				ID:     models.IDString(ent["subclientId"]),
				Name:   ent.String("subclientName"),
				Parent: ent.String("backupsetName"),
			})
		}
		return prefixCollisions(entries), nil
	})
}

// Get returns the subclient listed under name as its most specific type.
func (s *Subclients) Get(ctx context.Context, name string) (Subclient, error) {
	e, err := s.Entry(name)
	if err != nil {
		return nil, err
	}
	return NewSubclient(ctx, s.agent, e.ID)
}

// Default returns the subclient named "default". In an instance-wide
// registry the first in name order wins.
func (s *Subclients) Default(ctx context.Context) (Subclient, error) {
	for _, name := range s.Names() {
		if e := s.listing[name]; strings.EqualFold(e.Name, "default") {
			return NewSubclient(ctx, s.agent, e.ID)
		}
	}
	return nil, sdkerr.NotFound(s.entity, "default")
}

// SubclientOptions are the optional settings of a new subclient.
type SubclientOptions struct {
	StoragePolicy  string
	Description    string
	OnDemand       bool
	PreScanCommand string
}

// Add creates a subclient in the registry's backupset. An existing name is
// rejected without contacting the Commserve.
func (s *Subclients) Add(ctx context.Context, name string, opts SubclientOptions) (Subclient, error) {
	if s.backupset == nil {
		return nil, sdkerr.InvalidArgument(s.entity, "subclients can only be added to a backupset")
	}
	if strings.TrimSpace(name) == "" {
		return nil, sdkerr.InvalidArgument(s.entity, "name must not be empty")
	}
	if s.Has(name) {
		return nil, sdkerr.AlreadyExists(s.entity, name)
	}

	common := models.Document{
		"description":       opts.Description,
		"enableBackup":      true,
		"onDemandSubClient": opts.OnDemand,
	}
	if opts.StoragePolicy != "" {
		common["storageDevice"] = models.Document{
			"dataBackupStoragePolicy": models.Document{"storagePolicyName": opts.StoragePolicy},
		}
	}
	if opts.PreScanCommand != "" {
		common["prepostProcess"] = models.Document{"runAs": 1, "preScanCommand": opts.PreScanCommand}
	}
	body := models.Document{
		"subClientProperties": models.Document{
			"contentOperationType": 2,
			"subClientEntity": models.Document{
				"clientName":    s.agent.Client().Name(),
				"appName":       s.agent.Name(),
				"instanceName":  s.backupset.InstanceName(),
				"backupsetName": s.backupset.Name(),
				"subclientName": name,
			},
			"commonProperties": common,
		},
	}

	cc := s.agent.Client().cc
	doc, err := cc.send(ctx, s.entity, http.MethodPost, svcAddSubclient, body)
	if err != nil {
		return nil, err
	}
	if err := checkStatus(s.entity, doc); err != nil {
		return nil, cc.fail(s.entity, err)
	}
	cc.log.Info().Str("subclient", name).Str("backupset", s.backupset.Name()).Msg("subclient added")
	if err := s.Refresh(ctx); err != nil {
		return nil, err
	}
	return s.Get(ctx, name)
}

// Delete removes the named subclient.
func (s *Subclients) Delete(ctx context.Context, name string) error {
	e, err := s.Entry(name)
	if err != nil {
		return err
	}
	cc := s.agent.Client().cc
	doc, err := cc.send(ctx, s.entity, http.MethodDelete, endpoint(svcSubclient, e.ID), nil)
	if err != nil {
		return err
	}
	if err := checkStatus(s.entity, doc); err != nil {
		return cc.fail(s.entity, err)
	}
	cc.log.Info().Str("subclient", name).Msg("subclient deleted")
	return s.Refresh(ctx)
}

// BaseSubclient is the generic subclient. Specific subclient types embed it.
type BaseSubclient struct {
	resource
	agent Agent
}

// NewSubclient loads a subclient of agent and wraps it in the type its
// agent, instance and client call for.
func NewSubclient(ctx context.Context, agent Agent, id string) (Subclient, error) {
	base := &BaseSubclient{
		resource: resource{
			cc:       agent.Client().cc,
			entity:   "Subclient",
			id:       id,
			path:     endpoint(svcSubclient, id),
			key:      "subClientProperties",
			namePath: []string{"subClientEntity", "subclientName"},
		},
		agent: agent,
	}
	if err := base.load(ctx); err != nil {
		return nil, err
	}
	traits := subclientTraits{
		instanceName: base.props.String("subClientEntity", "instanceName"),
		clientType:   agent.Client().Type(),
		agentID:      agent.ID(),
	}
	return selectSubclient(agent.Name(), traits)(base), nil
}

// Agent returns the owning agent.
func (s *BaseSubclient) Agent() Agent {
	return s.agent
}

// Description returns the subclient description.
func (s *BaseSubclient) Description() string {
	return s.props.String("commonProperties", "description")
}

// IsBackupEnabled reports whether backups of the subclient are enabled.
func (s *BaseSubclient) IsBackupEnabled() bool {
	return s.props.Bool("commonProperties", "enableBackup")
}

// StoragePolicy returns the name of the data storage policy.
func (s *BaseSubclient) StoragePolicy() string {
	return s.props.String("commonProperties", "storageDevice", "dataBackupStoragePolicy", "storagePolicyName")
}

// Refresh reloads the subclient.
func (s *BaseSubclient) Refresh(ctx context.Context) error {
	return s.load(ctx)
}

func (s *BaseSubclient) entityDoc() models.Document {
	return s.props.Object("subClientEntity").DeepCopy()
}

func (s *BaseSubclient) identity() models.Document {
	ent := s.props.Object("subClientEntity")
	return models.Document{
		"clientName":    ent.String("clientName"),
		"appName":       ent.String("appName"),
		"instanceName":  ent.String("instanceName"),
		"backupsetName": ent.String("backupsetName"),
		"subclientName": s.name,
	}
}

// UpdateProperties submits a subClientProperties fragment. A subclient name
// in the fragment that differs from the current one renames the subclient.
func (s *BaseSubclient) UpdateProperties(ctx context.Context, fragment models.Document) error {
	body := models.Document{
		"subClientProperties": fragment.DeepCopy(),
		"association":         association(s.identity()),
	}
	if name := fragment.String("subClientEntity", "subclientName"); name != "" && !strings.EqualFold(name, s.name) {
		body["newName"] = name
	}
	return s.write(ctx, http.MethodPost, s.path, body)
}

// Apply submits p against the subclient properties.
func (s *BaseSubclient) Apply(ctx context.Context, p Patch) (models.Document, error) {
	return apply(ctx, s.entity, s, p)
}

// SetDescription changes the subclient description.
func (s *BaseSubclient) SetDescription(ctx context.Context, description string) error {
	_, err := s.Apply(ctx, Patch{}.Set("commonProperties.description", description))
	return err
}

// SetName renames the subclient.
func (s *BaseSubclient) SetName(ctx context.Context, name string) error {
	if strings.TrimSpace(name) == "" {
		return sdkerr.InvalidArgument(s.entity, "name must not be empty")
	}
	_, err := s.Apply(ctx, Patch{}.Set("subClientEntity.subclientName", name))
	return err
}

// EnableBackup enables backups of the subclient.
func (s *BaseSubclient) EnableBackup(ctx context.Context) error {
	_, err := s.Apply(ctx, Patch{}.Set("commonProperties.enableBackup", true))
	return err
}

// DisableBackup disables backups of the subclient.
func (s *BaseSubclient) DisableBackup(ctx context.Context) error {
	_, err := s.Apply(ctx, Patch{}.Set("commonProperties.enableBackup", false))
	return err
}

// EnableBackupAtTime keeps backups disabled until at, given as TimeLayout in
// the Commserve time zone. at must be in the future.
func (s *BaseSubclient) EnableBackupAtTime(ctx context.Context, at string) error {
	if _, err := s.cc.futureTime(s.entity, at); err != nil {
		return s.cc.fail(s.entity, err)
	}
	p := Patch{}.
		Set("commonProperties.enableBackup", false).
		Set("commonProperties.enableBackupAfterDelay", true).
		Set("commonProperties.enableBackupAtDateTime", s.cc.timeValue(at))
	_, err := s.Apply(ctx, p)
	return err
}

// Backup levels, keyed by their lower-case spelling.
var backupLevels = map[string]string{
	"full":            "Full",
	"incremental":     "Incremental",
	"differential":    "Differential",
	"synthetic_full":  "Synthetic_full",
	"transaction_log": "Transaction_Log",
}

func backupLevel(entity, level string) (string, error) {
	if level == "" {
		level = "incremental"
	}
	name, ok := backupLevels[strings.ToLower(level)]
	if !ok {
		return "", sdkerr.InvalidArgument(entity, "unknown backup level %q", level)
	}
	return name, nil
}

// Backup starts a backup at level. An empty level is incremental.
func (s *BaseSubclient) Backup(ctx context.Context, level string) (*Handle, error) {
	if _, err := backupLevel(s.entity, level); err != nil {
		return nil, s.cc.fail(s.entity, err)
	}
	if level == "" {
		level = "incremental"
	}
	path := endpoint(svcSubclientBackup, s.id, strings.ToLower(level))
	return s.cc.submit(ctx, s.entity, "backup", http.MethodPost, path, nil)
}

// BackupOptions configure BackupWithOptions. Advanced and Common are merged
// into the backupOpts and commonOpts sections as given.
type BackupOptions struct {
	Level                string
	RunIncrementalBackup bool
	// IncrementalLevel is BEFORE_SYNTH or AFTER_SYNTH for synthetic fulls.
	IncrementalLevel string
	Advanced         models.Document
	Common           models.Document
	Schedule         *schedpattern.Pattern
	ImpersonateGUI   bool
}

// backupRequest builds the CreateTask document of a backup.
func (s *BaseSubclient) backupRequest(opts BackupOptions) (models.Document, error) {
	level, err := backupLevel(s.entity, opts.Level)
	if err != nil {
		return nil, err
	}
	incLevel := opts.IncrementalLevel
	if incLevel == "" {
		incLevel = "BEFORE_SYNTH"
	}
	b := taskgraph.New(s.entityDoc()).
		SubTask(
			models.Document{"subTaskType": taskgraph.SubTaskTypeBackup, "operationType": taskgraph.OperationBackup},
			models.Document{"backupOpts": models.Document{
				"backupLevel":          level,
				"incLevel":             incLevel,
				"runIncrementalBackup": opts.RunIncrementalBackup,
			}},
		).
		MergeOptions("backupOpts", opts.Advanced).
		CommonOptions(opts.Common)
	if opts.ImpersonateGUI {
		b.InitiatedFrom(taskgraph.InitiatedFromGUI)
	}
	if opts.Schedule != nil {
		b.Schedule(opts.Schedule)
	}
	return b.Build()
}

// BackupWithOptions submits a backup task built from opts.
func (s *BaseSubclient) BackupWithOptions(ctx context.Context, opts BackupOptions) (*Handle, error) {
	body, err := s.backupRequest(opts)
	if err != nil {
		return nil, s.cc.fail(s.entity, asInvalid(s.entity, err))
	}
	return s.cc.submit(ctx, s.entity, "backup", http.MethodPost, svcCreateTask, body)
}

// asInvalid keeps SDK errors as they are and reports anything else as an
// invalid argument.
func asInvalid(entity string, err error) error {
	var sdkErr *sdkerr.Error
	if errors.As(err, &sdkErr) {
		return err
	}
	return sdkerr.InvalidArgument(entity, "%v", err)
}
