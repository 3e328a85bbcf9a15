package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bitfantasy/ppwr/internal/middleware"
	"github.com/bitfantasy/ppwr/internal/packaging/entity"
	"github.com/bitfantasy/ppwr/internal/packaging/repository"
	"github.com/bitfantasy/ppwr/internal/packaging/testutil"
	"github.com/bitfantasy/ppwr/internal/shared/apperr"
	"github.com/bitfantasy/ppwr/internal/shared/filestore"
	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// flakyStore 删除时返回错误，其余委托给内存存储
type flakyStore struct {
	*filestore.LocalStore
	deleteErr error
}

func (s *flakyStore) Delete(ctx context.Context, path string) error {
	if s.deleteErr != nil {
		return &filestore.StorageError{Op: "delete", Path: path, Err: s.deleteErr}
	}
	return s.LocalStore.Delete(ctx, path)
}

var _ filestore.Store = (*flakyStore)(nil)

type fixture struct {
	db        *gorm.DB
	fs        afero.Fs
	store     *flakyStore
	logs      *observer.ObservedLogs
	packaging *PackagingService
	documents *DocumentService
	users     *UserService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.SetupTestDB(t)
	fs := afero.NewMemMapFs()
	local, err := filestore.NewLocalStore(fs, "/uploads/packaging", "/uploads/packaging")
	require.NoError(t, err)
	store := &flakyStore{LocalStore: local}

	core, logs := observer.New(zapcore.DebugLevel)
	log := zap.New(core)

	repos := repository.NewRepositories(db)
	cache := NewItemCache(nil, 0, log)
	users := NewUserService(repos.User, NewTokenIssuer(testutil.JWTSecret, "ppwr", 72*time.Hour))
	users.hashCost = bcrypt.MinCost

	return &fixture{
		db:        db,
		fs:        fs,
		store:     store,
		logs:      logs,
		packaging: NewPackagingService(repos.Packaging, repos.Document, store, cache, log),
		documents: NewDocumentService(repos.Document, repos.Packaging, store, cache, log),
		users:     users,
	}
}

func cupRequest() *PackagingRequest {
	return &PackagingRequest{
		Name:         "Cup A",
		InternalCode: "CUP-A",
		Materials:    []string{"PP"},
		Weight:       "12g",
		PPWRLevel:    "A",
		Components: []ComponentRequest{{
			Name: "Lid", Format: "round", Weight: "2g", Volume: "5ml",
			PPWRCategory: "closure", PPWRLevel: "B", Quantity: 2,
			Supplier: "ACME", ManufacturingProcess: "injection", Color: "white",
		}},
	}
}

func pdf(name string) *UploadedFile {
	return &UploadedFile{Name: name, MimeType: "application/pdf", Data: []byte("%PDF-1.4 test")}
}

func TestCreateDefaultsStatus(t *testing.T) {
	f := newFixture(t)
	item, err := f.packaging.Create(context.Background(), cupRequest())
	require.NoError(t, err)

	assert.NotEmpty(t, item.ID)
	assert.Equal(t, entity.PackagingStatusDraft, item.Status)
	require.Len(t, item.Components, 1)
	assert.Equal(t, "Lid", item.Components[0].Name)
	assert.Equal(t, 2, item.Components[0].Quantity)
}

func TestCreateRejectsInvalidComponent(t *testing.T) {
	f := newFixture(t)
	req := cupRequest()
	req.Components[0].Quantity = 0

	_, err := f.packaging.Create(context.Background(), req)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	var count int64
	f.db.Model(&entity.PackagingItem{}).Count(&count)
	assert.Zero(t, count)
}

func TestGetNotFound(t *testing.T) {
	f := newFixture(t)
	_, err := f.packaging.Get(context.Background(), "missing")
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestUpdateReplacesComponentsKeepsDocuments(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	item, err := f.packaging.Create(ctx, cupRequest())
	require.NoError(t, err)
	_, err = f.documents.Upload(ctx, item.ID, &UploadDocumentRequest{Type: entity.DocumentTypeConformityDeclaration}, pdf("doc.pdf"))
	require.NoError(t, err)

	oldIDs := make([]string, 0, len(item.Components))
	for _, c := range item.Components {
		oldIDs = append(oldIDs, c.ID)
	}
	require.NotEmpty(t, oldIDs)

	req := cupRequest()
	req.Name = "Cup B"
	req.Status = entity.PackagingStatusActive
	req.Components[0].Name = "Straw"
	req.Components = append(req.Components, req.Components[0])
	req.Components[1].Name = "Sleeve"

	updated, err := f.packaging.Update(ctx, item.ID, req)
	require.NoError(t, err)
	assert.Equal(t, "Cup B", updated.Name)
	assert.Equal(t, entity.PackagingStatusActive, updated.Status)
	require.Len(t, updated.Components, 2)
	assert.Equal(t, "Straw", updated.Components[0].Name)
	assert.Equal(t, "Sleeve", updated.Components[1].Name)
	for _, c := range updated.Components {
		assert.NotContains(t, oldIDs, c.ID)
	}
	var stale int64
	f.db.Model(&entity.PackagingComponent{}).Where("id IN ?", oldIDs).Count(&stale)
	assert.Zero(t, stale)
	require.Len(t, updated.Documents, 1)
	assert.Contains(t, updated.Documents[0].FileURL, "/uploads/packaging/")
}

func TestUpdateWithoutComponentsClearsThem(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	item, err := f.packaging.Create(ctx, cupRequest())
	require.NoError(t, err)

	req := cupRequest()
	req.Components = nil
	updated, err := f.packaging.Update(ctx, item.ID, req)
	require.NoError(t, err)
	assert.Empty(t, updated.Components)
}

func TestUpdateNotFound(t *testing.T) {
	f := newFixture(t)
	_, err := f.packaging.Update(context.Background(), "missing", cupRequest())
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))

	var count int64
	f.db.Model(&entity.PackagingComponent{}).Count(&count)
	assert.Zero(t, count)
}

func TestDeleteCascadesFilesAndRows(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	item, err := f.packaging.Create(ctx, cupRequest())
	require.NoError(t, err)

	var paths []string
	for _, name := range []string{"a.pdf", "b.pdf"} {
		doc, err := f.documents.Upload(ctx, item.ID, &UploadDocumentRequest{Type: entity.DocumentTypeTechnicalDocumentation}, pdf(name))
		require.NoError(t, err)
		stored, err := repository.NewDocumentRepository(f.db).FindByID(ctx, doc.ID)
		require.NoError(t, err)
		paths = append(paths, stored.StoragePath)
	}

	require.NoError(t, f.packaging.Delete(ctx, item.ID))

	for _, p := range paths {
		exists, _ := afero.Exists(f.fs, p)
		assert.False(t, exists, p)
	}
	for _, model := range []interface{}{&entity.PackagingItem{}, &entity.PackagingComponent{}, &entity.PackagingDocument{}} {
		var count int64
		f.db.Model(model).Count(&count)
		assert.Zero(t, count)
	}

	_, err = f.packaging.Get(ctx, item.ID)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestDeleteLogsFileFailureAndContinues(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	item, err := f.packaging.Create(ctx, cupRequest())
	require.NoError(t, err)
	_, err = f.documents.Upload(ctx, item.ID, &UploadDocumentRequest{Type: entity.DocumentTypeTechnicalDocumentation}, pdf("a.pdf"))
	require.NoError(t, err)

	f.store.deleteErr = errors.New("permission denied")
	require.NoError(t, f.packaging.Delete(ctx, item.ID))

	var count int64
	f.db.Model(&entity.PackagingDocument{}).Count(&count)
	assert.Zero(t, count)

	entries := f.logs.FilterMessage("failed to delete document file").All()
	require.Len(t, entries, 1)
	assert.Equal(t, item.ID, entries[0].ContextMap()["item_id"])
}

func TestDeleteNotFound(t *testing.T) {
	f := newFixture(t)
	err := f.packaging.Delete(context.Background(), "missing")
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestUploadDocument(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	item := testutil.SeedTestItem(t, f.db, "Cup", 0)

	doc, err := f.documents.Upload(ctx, item.ID, &UploadDocumentRequest{Type: entity.DocumentTypeConformityDeclaration}, pdf("decl.pdf"))
	require.NoError(t, err)
	assert.Equal(t, "decl.pdf", doc.Name)
	assert.Equal(t, int64(len("%PDF-1.4 test")), doc.FileSize)
	assert.Regexp(t, `^/uploads/packaging/[0-9a-f-]{36}\.pdf$`, doc.FileURL)

	named, err := f.documents.Upload(ctx, item.ID, &UploadDocumentRequest{Type: entity.DocumentTypeConformityDeclaration, Name: "EU DoC"}, pdf("x.pdf"))
	require.NoError(t, err)
	assert.Equal(t, "EU DoC", named.Name)
}

func TestUploadRejections(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	item := testutil.SeedTestItem(t, f.db, "Cup", 0)
	okType := &UploadDocumentRequest{Type: entity.DocumentTypeConformityDeclaration}

	cases := []struct {
		name string
		item string
		req  *UploadDocumentRequest
		file *UploadedFile
		kind apperr.Kind
	}{
		{"bad type", item.ID, &UploadDocumentRequest{Type: "INVOICE"}, pdf("a.pdf"), apperr.KindValidation},
		{"no file", item.ID, okType, nil, apperr.KindValidation},
		{"not pdf", item.ID, okType, &UploadedFile{Name: "a.txt", MimeType: "text/plain", Data: []byte("x")}, apperr.KindValidation},
		{"too big", item.ID, okType, &UploadedFile{Name: "a.pdf", MimeType: "application/pdf", Data: make([]byte, MaxDocumentSize+1)}, apperr.KindValidation},
		{"missing item", "missing", okType, pdf("a.pdf"), apperr.KindNotFound},
	}
	for _, tc := range cases {
		_, err := f.documents.Upload(ctx, tc.item, tc.req, tc.file)
		assert.Equal(t, tc.kind, apperr.KindOf(err), tc.name)
	}

	var count int64
	f.db.Model(&entity.PackagingDocument{}).Count(&count)
	assert.Zero(t, count)
	entries, _ := afero.ReadDir(f.fs, "/uploads/packaging")
	assert.Empty(t, entries)
}

func TestDeleteDocument(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	item := testutil.SeedTestItem(t, f.db, "Cup", 0)
	doc, err := f.documents.Upload(ctx, item.ID, &UploadDocumentRequest{Type: entity.DocumentTypeConformityDeclaration}, pdf("a.pdf"))
	require.NoError(t, err)

	require.NoError(t, f.documents.Delete(ctx, doc.ID))
	entries, _ := afero.ReadDir(f.fs, "/uploads/packaging")
	assert.Empty(t, entries)

	err = f.documents.Delete(ctx, doc.ID)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestDeleteDocumentFileFailureKeepsRow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	item := testutil.SeedTestItem(t, f.db, "Cup", 0)
	doc, err := f.documents.Upload(ctx, item.ID, &UploadDocumentRequest{Type: entity.DocumentTypeConformityDeclaration}, pdf("a.pdf"))
	require.NoError(t, err)

	f.store.deleteErr = errors.New("io error")
	err = f.documents.Delete(ctx, doc.ID)
	assert.Equal(t, apperr.KindStorage, apperr.KindOf(err))

	_, err = repository.NewDocumentRepository(f.db).FindByID(ctx, doc.ID)
	assert.NoError(t, err)
}

func TestDeleteDocumentMissingFileSucceeds(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	item := testutil.SeedTestItem(t, f.db, "Cup", 0)
	doc := testutil.SeedTestDocument(t, f.db, item.ID, "/uploads/packaging/gone.pdf")

	require.NoError(t, f.documents.Delete(ctx, doc.ID))
}

func TestCacheDegradesWhenRedisDown(t *testing.T) {
	f := newFixture(t)
	rdb := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer rdb.Close()

	core, logs := observer.New(zapcore.WarnLevel)
	repos := repository.NewRepositories(f.db)
	svc := NewPackagingService(repos.Packaging, repos.Document, f.store, NewItemCache(rdb, time.Minute, zap.New(core)), zap.NewNop())

	ctx := context.Background()
	created, err := svc.Create(ctx, cupRequest())
	require.NoError(t, err)

	items, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, created.ID, items[0].ID)
	assert.NotZero(t, logs.Len())
}

func TestRegisterAndLogin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	resp, err := f.users.Register(ctx, &RegisterRequest{FullName: "Jane Doe", Email: "Jane@Example.com", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, "jane@example.com", resp.Email)
	assert.Equal(t, entity.RoleUser, resp.Role)

	claims := &middleware.JWTClaims{}
	_, err = jwt.ParseWithClaims(resp.Token, claims, func(*jwt.Token) (interface{}, error) {
		return []byte(testutil.JWTSecret), nil
	})
	require.NoError(t, err)
	assert.Equal(t, resp.ID, claims.ID)
	assert.Equal(t, "Jane Doe", claims.FullName)
	assert.WithinDuration(t, time.Now().Add(72*time.Hour), claims.ExpiresAt.Time, time.Minute)

	_, err = f.users.Register(ctx, &RegisterRequest{FullName: "Other", Email: "jane@example.com", Password: "secret2"})
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))

	login, err := f.users.Login(ctx, &LoginRequest{Email: "jane@example.com", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, resp.ID, login.ID)

	_, wrongPw := f.users.Login(ctx, &LoginRequest{Email: "jane@example.com", Password: "nope"})
	_, noUser := f.users.Login(ctx, &LoginRequest{Email: "ghost@example.com", Password: "secret1"})
	assert.Equal(t, apperr.KindInvalidCredentials, apperr.KindOf(wrongPw))
	assert.Equal(t, wrongPw.Error(), noUser.Error())
}

func TestUpdateUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := testutil.SeedTestUser(t, f.db, "u-1", "Jane", "jane@example.com", "secret1", entity.RoleUser)
	testutil.SeedTestUser(t, f.db, "u-2", "John", "john@example.com", "secret1", entity.RoleUser)

	updated, err := f.users.Update(ctx, u.ID, &UpdateUserRequest{FullName: "Jane Roe", Password: "newsecret"})
	require.NoError(t, err)
	assert.Equal(t, "Jane Roe", updated.FullName)
	assert.Equal(t, "jane@example.com", updated.Email)

	_, err = f.users.Login(ctx, &LoginRequest{Email: "jane@example.com", Password: "newsecret"})
	assert.NoError(t, err)

	_, err = f.users.Update(ctx, u.ID, &UpdateUserRequest{Email: "john@example.com"})
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))

	_, err = f.users.Update(ctx, "missing", &UpdateUserRequest{FullName: "x"})
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestDeleteAndPromoteUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	testutil.SeedTestUser(t, f.db, "u-1", "Jane", "jane@example.com", "secret1", entity.RoleUser)

	admin, err := f.users.Promote(ctx, "JANE@example.com")
	require.NoError(t, err)
	assert.Equal(t, entity.RoleAdmin, admin.Role)

	require.NoError(t, f.users.Delete(ctx, "u-1"))
	err = f.users.Delete(ctx, "u-1")
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestExport(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.packaging.Create(ctx, cupRequest())
	require.NoError(t, err)

	x, err := f.packaging.Export(ctx)
	require.NoError(t, err)
	defer x.Close()

	rows, err := x.GetRows("包装项")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Cup A", rows[1][1])

	compRows, err := x.GetRows("组件")
	require.NoError(t, err)
	require.Len(t, compRows, 2)
	assert.Equal(t, "Lid", compRows[1][2])
}
