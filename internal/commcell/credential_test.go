package commcell

import (
	"context"
	"encoding/base64"
	"net/http"
	"testing"

	"github.com/commvault-ps/cvpysdk-sub001/internal/models"
	"github.com/commvault-ps/cvpysdk-sub001/internal/sdkerr"
)

func TestCredentials_AddListDuplicate(t *testing.T) {
	cs, cc := newTestCommcell(t)
	ctx := context.Background()
	creds, err := cc.Credentials(ctx)
	if err != nil {
		t.Fatalf("Credentials returned error: %v", err)
	}
	if creds.Len() != 0 {
		t.Fatalf("Len = %d, want 0", creds.Len())
	}

	req := NewCredentialRequest{RecordType: "Windows", Name: "BackupAdmin", UserName: `LAB\backup`, Password: "s3cret", Description: "backups"}
	if err := creds.Add(ctx, req); err != nil {
		t.Fatalf("Add returned error: %v", err)
	}
	if !creds.Has("backupadmin") {
		t.Error("registry does not list the new credential")
	}
	sent, _ := cs.Last(http.MethodPost, "Credential")
	info, _ := models.AsDocument(sent.Body.List("credentialRecordInfo")[0])
	if got := info.String("record", "password"); got != base64.StdEncoding.EncodeToString([]byte("s3cret")) {
		t.Errorf("password = %q, want base64 encoded", got)
	}
	if got := info.Int("recordType"); got != 1 {
		t.Errorf("recordType = %d, want 1", got)
	}

	err = creds.Add(ctx, req)
	wantKind(t, err, sdkerr.KindAlreadyExists)
	if n := cs.Count(http.MethodPost, "Credential"); n != 1 {
		t.Errorf("POST Credential count = %d, want 1", n)
	}
}

func TestCredentials_AddValidation(t *testing.T) {
	tests := []struct {
		name string
		req  NewCredentialRequest
	}{
		{"record type", NewCredentialRequest{RecordType: "mainframe", Name: "a", UserName: "u", Password: "p"}},
		{"name", NewCredentialRequest{RecordType: "linux", UserName: "u", Password: "p"}},
		{"password", NewCredentialRequest{RecordType: "linux", Name: "a", UserName: "u"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cs, cc := newTestCommcell(t)
			creds, err := cc.Credentials(context.Background())
			if err != nil {
				t.Fatalf("Credentials returned error: %v", err)
			}
			wantKind(t, creds.Add(context.Background(), tc.req), sdkerr.KindInvalidArgument)
			if n := cs.Count(http.MethodPost, "Credential"); n != 0 {
				t.Errorf("POST Credential count = %d, want 0", n)
			}
		})
	}
}

func TestCredentials_Delete(t *testing.T) {
	cs, cc := newTestCommcell(t)
	cs.AddCredential("old", "root")
	ctx := context.Background()
	creds, err := cc.Credentials(ctx)
	if err != nil {
		t.Fatalf("Credentials returned error: %v", err)
	}
	wantKind(t, creds.Delete(ctx, "missing"), sdkerr.KindNotFound)
	if err := creds.Delete(ctx, "OLD"); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}
	if creds.Has("old") {
		t.Error("registry still lists the deleted credential")
	}
}

func TestCredential_Updates(t *testing.T) {
	cs, cc := newTestCommcell(t)
	cs.AddCredential("svc", "svc-user")
	ctx := context.Background()
	creds, err := cc.Credentials(ctx)
	if err != nil {
		t.Fatalf("Credentials returned error: %v", err)
	}
	cred, err := creds.Get(ctx, "svc")
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if cred.UserName() != "svc-user" || cred.RecordType() != "WINDOWS_ACCOUNT" {
		t.Errorf("user/type = %q/%q", cred.UserName(), cred.RecordType())
	}

	if err := cred.SetDescription(ctx, "service account"); err != nil {
		t.Fatalf("SetDescription returned error: %v", err)
	}
	if cred.Description() != "service account" {
		t.Errorf("Description = %q", cred.Description())
	}
	if err := cred.SetName(ctx, "SVC2"); err != nil {
		t.Fatalf("SetName returned error: %v", err)
	}
	if cred.Name() != "svc2" {
		t.Errorf("Name = %q, want svc2", cred.Name())
	}

	wantKind(t, cred.UpdateUserCredential(ctx, "", ""), sdkerr.KindInvalidArgument)
	if err := cred.UpdateUserCredential(ctx, "new-user", "pw"); err != nil {
		t.Fatalf("UpdateUserCredential returned error: %v", err)
	}
	sent, _ := cs.Last(http.MethodPut, "Credential")
	info, _ := models.AsDocument(sent.Body.List("credentialRecordInfo")[0])
	if got := info.String("credentialRecord", "credentialName"); got != "SVC2" {
		t.Errorf("credentialName = %q, want SVC2", got)
	}
	if got := info.String("record", "password"); got != base64.StdEncoding.EncodeToString([]byte("pw")) {
		t.Errorf("password = %q", got)
	}
	if cred.UserName() != "new-user" {
		t.Errorf("UserName = %q, want new-user", cred.UserName())
	}
	if cred.Properties().Has("password") {
		t.Error("password leaked into the snapshot")
	}
}
