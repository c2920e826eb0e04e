package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/mdshare/mdshare/backend/go-services/internal/document"
	"github.com/mdshare/mdshare/backend/go-services/internal/models"
	"github.com/mdshare/mdshare/backend/go-services/internal/storage"
	"github.com/mdshare/mdshare/backend/go-services/internal/users"
	"github.com/mdshare/mdshare/backend/go-services/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	owner = models.Principal{ID: "owner-1", Name: "Olive", Email: "olive@example.com"}
	userU = models.Principal{ID: "user-u", Name: "Uma", Email: "uma@example.com"}
	userV = models.Principal{ID: "user-v", Name: "Vic", Email: "vic@example.com"}
)

func strPtr(s string) *string { return &s }
func boolPtr(b bool) *bool    { return &b }
func listPtr(ps ...models.Principal) *[]models.Principal {
	l := append([]models.Principal{}, ps...)
	return &l
}

func newTestService(t *testing.T, opts Options) *Service {
	t.Helper()
	dir := users.NewService(users.NewMemoryUserRepository())
	for _, p := range []models.Principal{owner, userU, userV} {
		_, err := dir.Remember(context.Background(), p)
		require.NoError(t, err)
	}
	opts.Directory = dir
	clock := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	opts.Now = func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}
	return NewMemoryService(opts)
}

func createDoc(t *testing.T, s *Service, in DocumentInput) *document.Document {
	t.Helper()
	d, err := s.Create(context.Background(), owner, in)
	require.NoError(t, err)
	return d
}

func plainInput(title string) DocumentInput {
	return DocumentInput{Title: title, Content: strPtr("C"), AllowSharing: boolPtr(false), WhoCanAccess: listPtr()}
}

func TestShareRevokeScenario(t *testing.T) {
	s := newTestService(t, Options{})
	ctx := context.Background()

	d := createDoc(t, s, plainInput("T"))
	require.Len(t, d.ID, 24)
	require.Equal(t, owner.ID, d.OwnerID)
	require.False(t, d.AllowSharing)
	require.Empty(t, d.WhoCanAccess)

	d, err := s.Update(ctx, owner, d.ID, DocumentInput{Title: "T", Content: strPtr("C"), AllowSharing: boolPtr(true), WhoCanAccess: listPtr(userU)})
	require.NoError(t, err)
	require.True(t, d.AllowSharing)
	require.Equal(t, []models.Principal{userU}, d.WhoCanAccess)

	_, err = s.Get(ctx, userU, d.ID)
	require.NoError(t, err)
	_, err = s.Get(ctx, userV, d.ID)
	require.ErrorIs(t, err, document.ErrForbidden)

	d, err = s.Update(ctx, owner, d.ID, DocumentInput{Title: "T", Content: strPtr("C"), WhoCanAccess: listPtr()})
	require.NoError(t, err)
	require.False(t, d.AllowSharing, "empty recipient list turns sharing off")
	require.Empty(t, d.WhoCanAccess)

	_, err = s.Get(ctx, userU, d.ID)
	require.ErrorIs(t, err, document.ErrForbidden)
}

func TestCreate_RecipientThreshold(t *testing.T) {
	s := newTestService(t, Options{})
	ctx := context.Background()

	d, err := s.Create(ctx, owner, DocumentInput{Title: "one", Content: strPtr(""), AllowSharing: boolPtr(false), WhoCanAccess: listPtr(userU)})
	require.NoError(t, err, "a single recipient without sharing is tolerated on create")
	require.False(t, d.AllowSharing)
	require.Empty(t, d.WhoCanAccess)

	_, err = s.Create(ctx, owner, DocumentInput{Title: "two", Content: strPtr(""), AllowSharing: boolPtr(false), WhoCanAccess: listPtr(userU, userV)})
	require.ErrorIs(t, err, document.ErrPolicyViolation)

	list, err := s.List(ctx, owner)
	require.NoError(t, err)
	require.Len(t, list, 1, "rejected create persists nothing")
}

func TestCreate_SharedAndDeduplicated(t *testing.T) {
	s := newTestService(t, Options{})
	dup := userU
	dup.Name = "Other"
	d := createDoc(t, s, DocumentInput{Title: "T", Content: strPtr("C"), AllowSharing: boolPtr(true), WhoCanAccess: listPtr(userU, userV, dup)})
	require.True(t, d.AllowSharing)
	require.Equal(t, []models.Principal{userU, userV}, d.WhoCanAccess)

	d = createDoc(t, s, DocumentInput{Title: "T", Content: strPtr("C"), AllowSharing: boolPtr(true), WhoCanAccess: listPtr()})
	require.False(t, d.AllowSharing, "sharing with nobody is off")
}

func TestCreate_Validation(t *testing.T) {
	s := newTestService(t, Options{})
	ctx := context.Background()

	cases := []struct {
		name  string
		in    DocumentInput
		field string
	}{
		{"empty title", DocumentInput{Title: "", Content: strPtr("C")}, "title"},
		{"blank title", DocumentInput{Title: "   ", Content: strPtr("C")}, "title"},
		{"missing content", DocumentInput{Title: "T"}, "content"},
		{"recipient without id", DocumentInput{Title: "T", Content: strPtr("C"), WhoCanAccess: listPtr(models.Principal{Email: "a@example.com"})}, "whoCanAccess[0].id"},
		{"recipient bad email", DocumentInput{Title: "T", Content: strPtr("C"), AllowSharing: boolPtr(true), WhoCanAccess: listPtr(userU, models.Principal{ID: "x", Email: "nope"})}, "whoCanAccess[1].email"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := s.Create(ctx, owner, tc.in)
			require.ErrorIs(t, err, document.ErrValidation)
			var verr *document.ValidationError
			require.True(t, errors.As(err, &verr))
			require.Equal(t, tc.field, verr.Errors[0].Field)
		})
	}
}

func TestUnauthenticatedCaller(t *testing.T) {
	s := newTestService(t, Options{})
	_, err := s.List(context.Background(), models.Principal{})
	require.ErrorIs(t, err, document.ErrUnauthenticated)
	_, err = s.Create(context.Background(), models.Principal{}, plainInput("T"))
	require.ErrorIs(t, err, document.ErrUnauthenticated)
}

func TestUpdate_Rules(t *testing.T) {
	s := newTestService(t, Options{})
	ctx := context.Background()
	d := createDoc(t, s, DocumentInput{Title: "T", Content: strPtr("C"), AllowSharing: boolPtr(true), WhoCanAccess: listPtr(userU)})

	t.Run("recipient without sharing is rejected", func(t *testing.T) {
		_, err := s.Update(ctx, owner, d.ID, DocumentInput{Title: "T", Content: strPtr("C"), AllowSharing: boolPtr(false), WhoCanAccess: listPtr(userU)})
		require.ErrorIs(t, err, document.ErrPolicyViolation)
		got, err := s.Get(ctx, owner, d.ID)
		require.NoError(t, err)
		require.True(t, got.AllowSharing, "rejected update leaves the document untouched")
	})

	t.Run("omitted fields keep the existing sharing", func(t *testing.T) {
		got, err := s.Update(ctx, owner, d.ID, DocumentInput{Title: "T2", Content: strPtr("C2")})
		require.NoError(t, err)
		require.Equal(t, "T2", got.Title)
		require.True(t, got.AllowSharing)
		require.Equal(t, []models.Principal{userU}, got.WhoCanAccess)
	})

	t.Run("non-owner is forbidden", func(t *testing.T) {
		_, err := s.Update(ctx, userU, d.ID, plainInput("hijack"))
		require.ErrorIs(t, err, document.ErrForbidden)
	})

	t.Run("missing document", func(t *testing.T) {
		_, err := s.Update(ctx, owner, "000000000000000000000000", plainInput("T"))
		require.ErrorIs(t, err, document.ErrNotFound)
	})

	t.Run("disabling sharing clears recipients", func(t *testing.T) {
		got, err := s.Update(ctx, owner, d.ID, DocumentInput{Title: "T", Content: strPtr("C"), AllowSharing: boolPtr(false)})
		require.NoError(t, err)
		require.False(t, got.AllowSharing)
		require.Empty(t, got.WhoCanAccess)
	})
}

func TestUpdate_ReturnsPersistedRecord(t *testing.T) {
	s := newTestService(t, Options{})
	ctx := context.Background()
	d := createDoc(t, s, plainInput("T"))

	got, err := s.Update(ctx, owner, d.ID, DocumentInput{Title: "New", Content: strPtr(""), AllowSharing: boolPtr(true), WhoCanAccess: listPtr(userU, userU)})
	require.NoError(t, err)
	require.Equal(t, d.ID, got.ID)
	require.Equal(t, owner.ID, got.OwnerID)
	require.Equal(t, d.CreatedAt, got.CreatedAt)
	require.True(t, got.UpdatedAt.After(d.UpdatedAt))

	stored, err := s.Get(ctx, owner, d.ID)
	require.NoError(t, err)
	require.Equal(t, got, stored)
	require.Equal(t, []models.Principal{userU}, stored.WhoCanAccess)
}

func TestList_OwnedThenShared(t *testing.T) {
	s := newTestService(t, Options{})
	ctx := context.Background()

	mine := createDoc(t, s, plainInput("owner-only"))
	shared := createDoc(t, s, DocumentInput{Title: "shared", Content: strPtr("C"), AllowSharing: boolPtr(true), WhoCanAccess: listPtr(userU)})
	uDoc, err := s.Create(ctx, userU, plainInput("u's own"))
	require.NoError(t, err)

	list, err := s.List(ctx, userU)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, uDoc.ID, list[0].ID, "owned documents come first")
	assert.Equal(t, shared.ID, list[1].ID)

	list, err = s.List(ctx, owner)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, mine.ID, list[0].ID)

	list, err = s.List(ctx, userV)
	require.NoError(t, err)
	require.Empty(t, list)
}

func TestDelete(t *testing.T) {
	ctx := context.Background()

	t.Run("owner only, cascades comments", func(t *testing.T) {
		s := newTestService(t, Options{CascadeComments: true})
		d := createDoc(t, s, DocumentInput{Title: "T", Content: strPtr("C"), AllowSharing: boolPtr(true), WhoCanAccess: listPtr(userU)})
		_, err := s.CreateComment(ctx, userU, d.ID, CommentInput{Content: "hi"})
		require.NoError(t, err)

		_, err = s.Delete(ctx, userU, d.ID)
		require.ErrorIs(t, err, document.ErrForbidden, "readers cannot delete")

		removed, err := s.Delete(ctx, owner, d.ID)
		require.NoError(t, err)
		require.Equal(t, d.ID, removed.ID)

		_, err = s.Get(ctx, owner, d.ID)
		require.ErrorIs(t, err, document.ErrNotFound)
		left, err := s.comments.ListByDocument(ctx, d.ID)
		require.NoError(t, err)
		require.Empty(t, left)

		_, err = s.Delete(ctx, owner, d.ID)
		require.ErrorIs(t, err, document.ErrNotFound)
	})

	t.Run("comments kept without cascade", func(t *testing.T) {
		s := newTestService(t, Options{CascadeComments: false})
		d := createDoc(t, s, plainInput("T"))
		_, err := s.CreateComment(ctx, owner, d.ID, CommentInput{Content: "note"})
		require.NoError(t, err)
		_, err = s.Delete(ctx, owner, d.ID)
		require.NoError(t, err)
		left, err := s.comments.ListByDocument(ctx, d.ID)
		require.NoError(t, err)
		require.Len(t, left, 1)
	})
}

func TestComments(t *testing.T) {
	s := newTestService(t, Options{})
	ctx := context.Background()
	d := createDoc(t, s, DocumentInput{Title: "T", Content: strPtr("C"), AllowSharing: boolPtr(true), WhoCanAccess: listPtr(userU)})

	forged := userV
	c, err := s.CreateComment(ctx, userU, d.ID, CommentInput{Content: "looks good", User: &forged})
	require.NoError(t, err)
	require.Equal(t, userU, c.Author, "author is the caller, not the body")

	_, err = s.CreateComment(ctx, userV, d.ID, CommentInput{Content: "let me in"})
	require.ErrorIs(t, err, document.ErrForbidden)
	_, err = s.ListComments(ctx, userV, d.ID)
	require.ErrorIs(t, err, document.ErrForbidden)
	_, err = s.CreateComment(ctx, userU, d.ID, CommentInput{Content: "  "})
	require.ErrorIs(t, err, document.ErrValidation)
	_, err = s.CreateComment(ctx, userU, "000000000000000000000000", CommentInput{Content: "x"})
	require.ErrorIs(t, err, document.ErrNotFound)

	second, err := s.CreateComment(ctx, owner, d.ID, CommentInput{Content: "thanks"})
	require.NoError(t, err)
	list, err := s.ListComments(ctx, userU, d.ID)
	require.NoError(t, err)
	require.Equal(t, []string{c.ID, second.ID}, []string{list[0].ID, list[1].ID})

	t.Run("update", func(t *testing.T) {
		_, err := s.UpdateComment(ctx, owner, d.ID, c.ID, CommentInput{Content: "edited"})
		require.ErrorIs(t, err, document.ErrForbidden, "document owner cannot edit others' comments")
		_, err = s.UpdateComment(ctx, userU, d.ID, "", CommentInput{Content: "edited"})
		require.ErrorIs(t, err, document.ErrValidation)
		_, err = s.UpdateComment(ctx, userU, d.ID, "000000000000000000000000", CommentInput{Content: "edited"})
		require.ErrorIs(t, err, document.ErrNotFound)

		got, err := s.UpdateComment(ctx, userU, d.ID, c.ID, CommentInput{Content: "edited"})
		require.NoError(t, err)
		require.Equal(t, "edited", got.Content)
		require.Equal(t, userU, got.Author)
	})

	t.Run("delete", func(t *testing.T) {
		_, err := s.DeleteComment(ctx, owner, d.ID, c.ID)
		require.ErrorIs(t, err, document.ErrForbidden)
		_, err = s.DeleteComment(ctx, userU, d.ID, "")
		require.ErrorIs(t, err, document.ErrValidation)
		_, err = s.DeleteComment(ctx, userU, "000000000000000000000000", c.ID)
		require.ErrorIs(t, err, document.ErrNotFound)

		removed, err := s.DeleteComment(ctx, userU, d.ID, c.ID)
		require.NoError(t, err)
		require.Equal(t, c.ID, removed.ID)
		_, err = s.DeleteComment(ctx, userU, d.ID, c.ID)
		require.ErrorIs(t, err, document.ErrNotFound)
	})
}

func TestShareByEmailAndUnshare(t *testing.T) {
	s := newTestService(t, Options{})
	ctx := context.Background()
	d := createDoc(t, s, plainInput("T"))

	_, err := s.ShareByEmail(ctx, owner, d.ID, "nobody@example.com")
	require.ErrorIs(t, err, document.ErrNotFound)
	_, err = s.ShareByEmail(ctx, owner, d.ID, "not-an-email")
	require.ErrorIs(t, err, document.ErrValidation)
	_, err = s.ShareByEmail(ctx, owner, d.ID, owner.Email)
	require.ErrorIs(t, err, document.ErrValidation)
	_, err = s.ShareByEmail(ctx, userU, d.ID, userV.Email)
	require.ErrorIs(t, err, document.ErrForbidden)

	got, err := s.ShareByEmail(ctx, owner, d.ID, "UMA@example.com")
	require.NoError(t, err)
	require.True(t, got.AllowSharing)
	require.Equal(t, []models.Principal{userU}, got.WhoCanAccess)

	again, err := s.ShareByEmail(ctx, owner, d.ID, userU.Email)
	require.NoError(t, err)
	require.Equal(t, got, again, "sharing twice is a no-op")

	got, err = s.ShareByEmail(ctx, owner, d.ID, userV.Email)
	require.NoError(t, err)
	require.Equal(t, []models.Principal{userU, userV}, got.WhoCanAccess)

	_, err = s.Unshare(ctx, userU, d.ID, userU.ID)
	require.ErrorIs(t, err, document.ErrForbidden)

	got, err = s.Unshare(ctx, owner, d.ID, userU.ID)
	require.NoError(t, err)
	require.True(t, got.AllowSharing)
	require.Equal(t, []models.Principal{userV}, got.WhoCanAccess)

	got, err = s.Unshare(ctx, owner, d.ID, userV.ID)
	require.NoError(t, err)
	require.False(t, got.AllowSharing)
	require.Empty(t, got.WhoCanAccess)

	_, err = s.Get(ctx, userV, d.ID)
	require.ErrorIs(t, err, document.ErrForbidden)
}

func TestLookupUser(t *testing.T) {
	s := newTestService(t, Options{})
	p, err := s.LookupUser(context.Background(), owner, "vic@example.com")
	require.NoError(t, err)
	require.Equal(t, userV, *p)

	_, err = s.LookupUser(context.Background(), owner, "ghost@example.com")
	require.ErrorIs(t, err, document.ErrNotFound)
}

func TestPreview(t *testing.T) {
	s := newTestService(t, Options{})
	ctx := context.Background()
	d := createDoc(t, s, DocumentInput{Title: "T", Content: strPtr("# Hello\n\n<script>alert(1)</script>\n\n| a | b |\n|---|---|\n| 1 | 2 |\n")})

	html, err := s.Preview(ctx, owner, d.ID)
	require.NoError(t, err)
	assert.Contains(t, html, `<h1 id="hello">Hello</h1>`)
	assert.Contains(t, html, "<table>")
	assert.NotContains(t, html, "<script>")

	_, err = s.Preview(ctx, userU, d.ID)
	require.ErrorIs(t, err, document.ErrForbidden)
}

type fakeStore struct {
	obj        storage.Object
	body       string
	filename   string
	failUpload bool
}

func (f *fakeStore) Put(_ context.Context, obj storage.Object) error {
	if f.failUpload {
		return errors.New("bucket unavailable")
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, obj.Body); err != nil {
		return err
	}
	if int64(buf.Len()) != obj.Size {
		return errors.New("size mismatch")
	}
	f.obj, f.body = obj, buf.String()
	return nil
}

func (f *fakeStore) PresignDownload(_ context.Context, key, filename string, expires time.Duration) (string, error) {
	f.filename = filename
	return "https://objects.example.com/" + key + "?ttl=" + expires.String(), nil
}

func TestExport(t *testing.T) {
	ctx := context.Background()

	t.Run("unavailable without storage", func(t *testing.T) {
		s := newTestService(t, Options{})
		d := createDoc(t, s, plainInput("T"))
		_, err := s.Export(ctx, owner, d.ID)
		require.ErrorIs(t, err, document.ErrExportUnavailable)
	})

	t.Run("uploads markdown", func(t *testing.T) {
		store := &fakeStore{}
		s := newTestService(t, Options{Exports: store, ExportURLTTL: 5 * time.Minute})
		d := createDoc(t, s, DocumentInput{Title: "Meeting Notes: Q3!", Content: strPtr("# Q3")})

		out, err := s.Export(ctx, owner, d.ID)
		require.NoError(t, err)
		require.Equal(t, "documents/"+d.ID+"/meeting-notes-q3.md", out.Key)
		require.Equal(t, out.Key, store.obj.Key)
		require.Equal(t, "# Q3", store.body)
		require.True(t, strings.HasPrefix(store.obj.ContentType, "text/markdown"))
		require.Equal(t, d.ID, store.obj.DocumentID)
		require.Equal(t, owner.ID, store.obj.OwnerID)
		require.Equal(t, "meeting-notes-q3.md", store.filename)
		require.Contains(t, out.URL, "ttl=5m0s")

		_, err = s.Export(ctx, userV, d.ID)
		require.ErrorIs(t, err, document.ErrForbidden)

		store.failUpload = true
		_, err = s.Export(ctx, owner, d.ID)
		require.Error(t, err)
		require.Equal(t, "error", Outcome(err))
	})
}

func TestSlug(t *testing.T) {
	require.Equal(t, "document", slug("!!!"))
	require.Equal(t, "a-b", slug("  A   b  "))
	require.Equal(t, "über-plan", slug("Über Plan"))
}

func TestMetricsRecorded(t *testing.T) {
	s := newTestService(t, Options{})
	ctx := context.Background()
	d := createDoc(t, s, plainInput("T"))

	okBefore := testutil.ToFloat64(metrics.DocumentOperations.WithLabelValues("get", "ok"))
	deniedBefore := testutil.ToFloat64(metrics.DocumentOperations.WithLabelValues("get", "forbidden"))
	readDenialsBefore := testutil.ToFloat64(metrics.PolicyDenials.WithLabelValues("read"))

	_, err := s.Get(ctx, owner, d.ID)
	require.NoError(t, err)
	_, err = s.Get(ctx, userV, d.ID)
	require.Error(t, err)

	require.Equal(t, okBefore+1, testutil.ToFloat64(metrics.DocumentOperations.WithLabelValues("get", "ok")))
	require.Equal(t, deniedBefore+1, testutil.ToFloat64(metrics.DocumentOperations.WithLabelValues("get", "forbidden")))
	require.Equal(t, readDenialsBefore+1, testutil.ToFloat64(metrics.PolicyDenials.WithLabelValues("read")))
}

func TestOutcome(t *testing.T) {
	require.Equal(t, "ok", Outcome(nil))
	require.Equal(t, "not_found", Outcome(fmt.Errorf("load: %w", document.ErrNotFound)))
	require.Equal(t, "error", Outcome(errors.New("x: "+document.ErrNotFound.Error())), "plain text is not classified")
	require.Equal(t, "error", Outcome(errors.New("boom")))
	require.Equal(t, "invalid", Outcome(document.NewValidationError("f", "m")))
	require.Equal(t, "policy", Outcome(document.ErrPolicyViolation))
}
