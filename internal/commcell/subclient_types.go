package commcell

import (
	"context"
	"net/http"
	"time"

	"github.com/commvault-ps/cvpysdk-sub001/internal/models"
	"github.com/commvault-ps/cvpysdk-sub001/internal/schedpattern"
	"github.com/commvault-ps/cvpysdk-sub001/internal/sdkerr"
	"github.com/commvault-ps/cvpysdk-sub001/internal/taskgraph"
)

// DefaultRestoreStreams is used when RestoreOptions leaves Streams unset.
const DefaultRestoreStreams = 10

// FileSystemSubclient is a file system subclient.
type FileSystemSubclient struct {
	*BaseSubclient
}

// Content returns the paths the subclient backs up.
func (s *FileSystemSubclient) Content() []string {
	var paths []string
	for _, c := range s.props.List("content") {
		if d, ok := models.AsDocument(c); ok {
			if p := d.String("path"); p != "" {
				paths = append(paths, p)
			}
		}
	}
	return paths
}

// RestoreOptions select what a file system restore brings back and how.
type RestoreOptions struct {
	Paths       []string
	Overwrite   bool
	RestoreACLs bool
	// CopyPrecedence selects the storage policy copy; zero means the default.
	CopyPrecedence int
	// FromTime and ToTime bound the backup times browsed, as TimeLayout.
	FromTime string
	ToTime   string
	Streams  int
	Advanced models.Document
	Schedule *schedpattern.Pattern
}

// RestoreInPlace restores paths to their original location.
func (s *FileSystemSubclient) RestoreInPlace(ctx context.Context, opts RestoreOptions) (*Handle, error) {
	return s.restore(ctx, opts, "", "")
}

// RestoreOutOfPlace restores paths to destPath on client.
func (s *FileSystemSubclient) RestoreOutOfPlace(ctx context.Context, client, destPath string, opts RestoreOptions) (*Handle, error) {
	if client == "" || destPath == "" {
		return nil, s.cc.fail(s.entity, sdkerr.InvalidArgument(s.entity, "destination client and path are required"))
	}
	return s.restore(ctx, opts, client, destPath)
}

func (s *FileSystemSubclient) restore(ctx context.Context, opts RestoreOptions, client, destPath string) (*Handle, error) {
	body, err := s.restoreRequest(opts, client, destPath)
	if err != nil {
		return nil, s.cc.fail(s.entity, asInvalid(s.entity, err))
	}
	return s.cc.submit(ctx, s.entity, "restore", http.MethodPost, svcCreateTask, body)
}

func (s *FileSystemSubclient) epoch(value string) (int64, error) {
	if value == "" {
		return 0, nil
	}
	t, err := time.ParseInLocation(TimeLayout, value, s.cc.location)
	if err != nil {
		return 0, sdkerr.InvalidTimeFormat(s.entity, value, TimeLayout)
	}
	return t.Unix(), nil
}

// restoreRequest builds the CreateTask document of a restore. An empty
// client restores in place.
func (s *FileSystemSubclient) restoreRequest(opts RestoreOptions, client, destPath string) (models.Document, error) {
	if len(opts.Paths) == 0 {
		return nil, sdkerr.InvalidArgument(s.entity, "at least one path is required")
	}
	from, err := s.epoch(opts.FromTime)
	if err != nil {
		return nil, err
	}
	to, err := s.epoch(opts.ToTime)
	if err != nil {
		return nil, err
	}
	streams := opts.Streams
	if streams <= 0 {
		streams = DefaultRestoreStreams
	}

	ent := s.props.Object("subClientEntity")
	inPlace := client == ""
	destination := models.Document{
		"inPlace":     inPlace,
		"destClient":  models.Document{"clientName": ent.String("clientName")},
		"noOfStreams": streams,
	}
	if !inPlace {
		destination["destClient"] = models.Document{"clientName": client}
		destination["destPath"] = []interface{}{destPath}
	}
	sources := make([]interface{}, len(opts.Paths))
	for i, p := range opts.Paths {
		sources[i] = p
	}
	browse := models.Document{
		"commCellId": 2,
		"backupset": models.Document{
			"clientName":    ent.String("clientName"),
			"backupsetName": ent.String("backupsetName"),
		},
		"timeRange": models.Document{"fromTime": from, "toTime": to},
	}
	if opts.CopyPrecedence > 0 {
		browse["mediaOption"] = models.Document{"copyPrecedence": models.Document{
			"copyPrecedenceApplicable": true,
			"copyPrecedence":           opts.CopyPrecedence,
		}}
	}

	b := taskgraph.New(s.entityDoc()).
		SubTask(
			models.Document{"subTaskType": taskgraph.SubTaskTypeRestore, "operationType": taskgraph.OperationRestore},
			models.Document{"restoreOptions": models.Document{
				"browseOption": browse,
				"destination":  destination,
				"fileOption":   models.Document{"sourceItem": sources},
				"commonOptions": models.Document{
					"unconditionalOverwrite": opts.Overwrite,
					"restoreACLs":            opts.RestoreACLs,
				},
			}},
		).
		MergeOptions("restoreOptions", opts.Advanced)
	if opts.Schedule != nil {
		b.Schedule(opts.Schedule)
	}
	return b.Build()
}

// VirtualServerSubclient is a virtual server subclient.
type VirtualServerSubclient struct {
	*BaseSubclient
}

// ContentIndexingOptions configure RunContentIndexing.
type ContentIndexingOptions struct {
	PickFailedItems     bool
	PickOnlyFailedItems bool
	// Streams defaults to 4.
	Streams int
	Proxies []string
}

// RunContentIndexing starts a content indexing job over the subclient's backups.
func (s *VirtualServerSubclient) RunContentIndexing(ctx context.Context, opts ContentIndexingOptions) (*Handle, error) {
	body, err := s.contentIndexingRequest(opts)
	if err != nil {
		return nil, s.cc.fail(s.entity, asInvalid(s.entity, err))
	}
	return s.cc.submit(ctx, s.entity, "content_indexing", http.MethodPost, svcCreateTask, body)
}

func (s *VirtualServerSubclient) contentIndexingRequest(opts ContentIndexingOptions) (models.Document, error) {
	streams := opts.Streams
	if streams <= 0 {
		streams = 4
	}
	proxies := models.Document{}
	if len(opts.Proxies) > 0 {
		list := make([]interface{}, len(opts.Proxies))
		for i, p := range opts.Proxies {
			list[i] = models.Document{"clientName": p}
		}
		proxies["memberServers"] = list
	}
	return taskgraph.New(s.entityDoc()).
		SubTask(
			models.Document{"subTaskType": taskgraph.SubTaskTypeAdmin, "operationType": taskgraph.OperationContentIndexing},
			models.Document{
				"backupOpts": models.Document{"mediaOpt": models.Document{
					"pickFailedItems":     opts.PickFailedItems,
					"pickFailedItemsOnly": opts.PickOnlyFailedItems,
					"auxcopyJobOption": models.Document{
						"maxNumberOfStreams": streams,
						"allCopies":          true,
						"useMaximumStreams":  false,
						"proxies":            proxies,
					},
				}},
				"adminOpts": models.Document{"contentIndexingOption": models.Document{
					"reanalyze":               false,
					"fileAnalytics":           false,
					"subClientBasedAnalytics": false,
				}},
				"restoreOptions": models.Document{
					"virtualServerRstOption": models.Document{"isBlockLevelReplication": false},
					"browseOption":           models.Document{"backupset": models.Document{}},
				},
			},
		).
		Build()
}

// VMInstanceSubclient is the subclient of a virtual machine client.
type VMInstanceSubclient struct {
	*BaseSubclient
}

// ExchangeMailboxSubclient is an Exchange mailbox subclient.
type ExchangeMailboxSubclient struct {
	*BaseSubclient
}

// CaseSubclient is the subclient of a case manager pseudo-client.
type CaseSubclient struct {
	*BaseSubclient
}

// SharepointV1Subclient is a subclient of the legacy SharePoint agent.
type SharepointV1Subclient struct {
	*BaseSubclient
}

// SharepointSubclient is a SharePoint subclient on a pseudo-client.
type SharepointSubclient struct {
	*BaseSubclient
}
