package commcell

import (
	"context"
	"encoding/base64"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/commvault-ps/cvpysdk-sub001/internal/models"
	"github.com/commvault-ps/cvpysdk-sub001/internal/sdkerr"
)

var validate = validator.New()

// Credential record types accepted by Add.
var recordTypes = map[string]int{
	"windows": 1,
	"linux":   2,
}

// accountTypes maps the account type the detail service reports back to a
// record type.
var accountTypes = map[string]int{
	"WINDOWS_ACCOUNT": 1,
	"LINUX_ACCOUNT":   2,
}

// Credentials is the registry of credential records.
type Credentials struct {
	*Registry
	cc *Commcell
}

// NewCredentials loads the credential registry.
func NewCredentials(ctx context.Context, cc *Commcell) (*Credentials, error) {
	reg, err := newRegistry(ctx, "Credential", func(ctx context.Context) (Listing, error) {
		doc, err := cc.get(ctx, "Credential", svcCredentials)
		if err != nil {
			return nil, err
		}
		items, err := listElements("Credential", doc, "credentialRecordInfo", true)
		if err != nil {
			return nil, cc.fail("Credential", err)
		}
		listing := Listing{}
		for _, item := range items {
			rec := item.Object("credentialRecord")
			name := rec.String("credentialName")
			listing[strings.ToLower(name)] = Entry{
				ID:    models.IDString(rec["credentialId"]),
				Name:  name,
				Attrs: models.Document{"recordType": item["recordType"]},
			}
		}
		return listing, nil
	})
	if err != nil {
		return nil, err
	}
	return &Credentials{Registry: reg, cc: cc}, nil
}

// Get returns the named credential.
func (c *Credentials) Get(ctx context.Context, name string) (*Credential, error) {
	e, err := c.Entry(name)
	if err != nil {
		return nil, err
	}
	return NewCredential(ctx, c.cc, e.ID)
}

// NewCredentialRequest describes a credential record to create.
type NewCredentialRequest struct {
	RecordType  string `validate:"required,oneof=windows linux"`
	Name        string `validate:"required"`
	UserName    string `validate:"required"`
	Password    string `validate:"required"`
	Description string
}

// Add creates a credential record and reloads the registry. An existing name
// is rejected without contacting the Commserve.
func (c *Credentials) Add(ctx context.Context, req NewCredentialRequest) error {
	req.RecordType = strings.ToLower(req.RecordType)
	if err := validate.Struct(req); err != nil {
		return c.cc.fail(c.entity, sdkerr.InvalidArgument(c.entity, "%v", err))
	}
	if c.Has(req.Name) {
		return c.cc.fail(c.entity, sdkerr.AlreadyExists(c.entity, req.Name))
	}

	body := models.Document{"credentialRecordInfo": []interface{}{models.Document{
		"recordType":       recordTypes[req.RecordType],
		"description":      req.Description,
		"credentialRecord": models.Document{"credentialName": req.Name},
		"record": models.Document{
			"userName": req.UserName,
			"password": base64.StdEncoding.EncodeToString([]byte(req.Password)),
		},
	}}}
	doc, err := c.cc.send(ctx, c.entity, http.MethodPost, svcCredential, body)
	if err != nil {
		return err
	}
	if err := checkStatus(c.entity, doc); err != nil {
		return c.cc.fail(c.entity, err)
	}
	c.cc.log.Info().Str("credential", req.Name).Msg("credential added")
	return c.Refresh(ctx)
}

// Delete removes the named credential record.
func (c *Credentials) Delete(ctx context.Context, name string) error {
	e, err := c.Entry(name)
	if err != nil {
		return c.cc.fail(c.entity, err)
	}
	body := models.Document{"credentialRecordInfo": []interface{}{models.Document{
		"credentialRecord": models.Document{"credentialName": e.Name},
	}}}
	doc, err := c.cc.send(ctx, c.entity, http.MethodPost, svcDeleteCredential, body)
	if err != nil {
		return err
	}
	if err := checkStatus(c.entity, doc); err != nil {
		return c.cc.fail(c.entity, err)
	}
	c.cc.log.Info().Str("credential", name).Msg("credential deleted")
	return c.Refresh(ctx)
}

// Credential is one credential record. Its snapshot is the record detail:
// name, description, userAccount and accountType.
type Credential struct {
	resource
}

// NewCredential loads the credential with the given id.
func NewCredential(ctx context.Context, cc *Commcell, id string) (*Credential, error) {
	c := &Credential{resource: resource{
		cc:       cc,
		entity:   "Credential",
		id:       id,
		path:     endpoint(svcCredentialDetail, id),
		namePath: []string{"name"},
	}}
	if err := c.load(ctx); err != nil {
		return nil, err
	}
	return c, nil
}

// Refresh reloads the credential.
func (c *Credential) Refresh(ctx context.Context) error {
	return c.load(ctx)
}

// Description returns the credential description.
func (c *Credential) Description() string {
	return c.props.String("description")
}

// UserName returns the account the credential logs in as.
func (c *Credential) UserName() string {
	return c.props.String("userAccount")
}

// RecordType returns the account type, e.g. WINDOWS_ACCOUNT.
func (c *Credential) RecordType() string {
	return c.props.String("accountType")
}

// UpdateProperties submits a fragment in snapshot terms: name, description,
// userAccount and the write-only password. It is sent as a credential record.
func (c *Credential) UpdateProperties(ctx context.Context, fragment models.Document) error {
	id, _ := strconv.Atoi(c.id)
	name := c.props.String("name")
	if v, ok := fragment["name"]; ok {
		name, _ = v.(string)
	}
	user := c.props.String("userAccount")
	if v, ok := fragment["userAccount"]; ok {
		user, _ = v.(string)
	}
	record := models.Document{"userName": user}
	if pw, ok := fragment["password"].(string); ok && pw != "" {
		record["password"] = base64.StdEncoding.EncodeToString([]byte(pw))
	}
	info := models.Document{
		"recordType":       accountTypes[c.RecordType()],
		"credentialRecord": models.Document{"credentialId": id, "credentialName": name},
		"record":           record,
	}
	if v, ok := fragment["description"]; ok {
		info["description"] = v
	}
	return c.write(ctx, http.MethodPut, svcCredential, models.Document{"credentialRecordInfo": []interface{}{info}})
}

// Apply submits p against the credential detail.
func (c *Credential) Apply(ctx context.Context, p Patch) (models.Document, error) {
	return apply(ctx, c.entity, c, p)
}

// SetName renames the credential.
func (c *Credential) SetName(ctx context.Context, name string) error {
	if strings.TrimSpace(name) == "" {
		return sdkerr.InvalidArgument(c.entity, "name must not be empty")
	}
	_, err := c.Apply(ctx, Patch{}.Set("name", name))
	return err
}

// SetDescription changes the credential description.
func (c *Credential) SetDescription(ctx context.Context, description string) error {
	_, err := c.Apply(ctx, Patch{}.Set("description", description))
	return err
}

// UpdateUserCredential replaces the account name and password.
func (c *Credential) UpdateUserCredential(ctx context.Context, user, password string) error {
	if user == "" || password == "" {
		return sdkerr.InvalidArgument(c.entity, "user name and password are required")
	}
	_, err := c.Apply(ctx, Patch{}.Set("userAccount", user).Set("password", password))
	return err
}
