package testutil

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"path/filepath"
	"testing"
	"time"

	"github.com/bitfantasy/ppwr/internal/middleware"
	"github.com/bitfantasy/ppwr/internal/packaging/entity"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	_ "modernc.org/sqlite"
)

const (
	JWTSecret = "ppwr-test-jwt-secret"
)

// TestEnv holds test environment resources
type TestEnv struct {
	DB     *gorm.DB
	Router *gin.Engine
	T      *testing.T
}

// SetupTestDB opens a migrated sqlite database in a per-test temp dir.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "ppwr.db")
	db, err := gorm.Open(sqlite.Dialector{
		DriverName: "sqlite",
		DSN:        path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)",
	}, &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("Failed to get sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(entity.AllModels()...); err != nil {
		t.Fatalf("Failed to migrate test tables: %v", err)
	}

	t.Cleanup(func() {
		sqlDB.Close()
	})

	return db
}

// SetupRouter creates a gin test router
func SetupRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(gin.Recovery())
	return r
}

// AuthGroup creates an API group with JWT auth middleware for testing
func AuthGroup(r *gin.Engine, path string) *gin.RouterGroup {
	return r.Group(path, middleware.JWTAuth(JWTSecret))
}

// GenerateTestToken creates a valid JWT token for testing
func GenerateTestToken(userID, fullName, role string) string {
	now := time.Now()
	claims := middleware.JWTClaims{
		ID:       userID,
		FullName: fullName,
		Role:     role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    "ppwr",
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(24 * time.Hour)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, _ := token.SignedString([]byte(JWTSecret))
	return tokenString
}

// DefaultTestToken returns a token for a regular test user
func DefaultTestToken() string {
	return GenerateTestToken("test-user-001", "Test User", entity.RoleUser)
}

// AdminTestToken returns a token for an admin test user
func AdminTestToken() string {
	return GenerateTestToken("test-admin-001", "Test Admin", entity.RoleAdmin)
}

// DoRequest executes an HTTP request against the test router
func DoRequest(r *gin.Engine, method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	var reqBody *bytes.Buffer
	if body != nil {
		jsonBytes, _ := json.Marshal(body)
		reqBody = bytes.NewBuffer(jsonBytes)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req, _ := http.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// UploadFile describes the file part of a multipart request
type UploadFile struct {
	FieldName   string
	FileName    string
	ContentType string
	Content     []byte
}

// DoMultipart executes a multipart/form-data request against the test router
func DoMultipart(r *gin.Engine, method, path string, fields map[string]string, file *UploadFile, token string) *httptest.ResponseRecorder {
	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	for k, v := range fields {
		mw.WriteField(k, v)
	}
	if file != nil {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="`+file.FieldName+`"; filename="`+file.FileName+`"`)
		h.Set("Content-Type", file.ContentType)
		part, _ := mw.CreatePart(h)
		part.Write(file.Content)
	}
	mw.Close()

	req, _ := http.NewRequest(method, path, body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// ParseResponse parses the JSON response body into a map
func ParseResponse(w *httptest.ResponseRecorder) map[string]interface{} {
	var result map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &result)
	return result
}

// SeedTestUser creates a test user in the database
func SeedTestUser(t *testing.T, db *gorm.DB, id, fullName, email, password, role string) *entity.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("Failed to hash password: %v", err)
	}
	user := &entity.User{
		ID:        id,
		FullName:  fullName,
		Email:     email,
		Password:  string(hash),
		Role:      role,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("Failed to seed test user: %v", err)
	}
	return user
}

// SeedTestItem creates a packaging item with the given number of components
func SeedTestItem(t *testing.T, db *gorm.DB, name string, components int) *entity.PackagingItem {
	t.Helper()
	now := time.Now()
	item := &entity.PackagingItem{
		ID:           uuid.New().String(),
		Name:         name,
		InternalCode: "IC-" + name,
		Materials:    datatypes.JSONSlice[string]{"PP"},
		Status:       entity.PackagingStatusDraft,
		Weight:       "10g",
		PPWRLevel:    "A",
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := db.Omit("Components", "Documents").Create(item).Error; err != nil {
		t.Fatalf("Failed to seed packaging item: %v", err)
	}
	for i := 0; i < components; i++ {
		comp := entity.PackagingComponent{
			ID:                   uuid.New().String(),
			PackagingItemID:      item.ID,
			Name:                 "Component",
			Format:               "round",
			Weight:               "1g",
			Volume:               "1ml",
			PPWRCategory:         "cat",
			PPWRLevel:            "A",
			Quantity:             1,
			Supplier:             "ACME",
			ManufacturingProcess: "injection",
			Color:                "white",
		}
		if err := db.Create(&comp).Error; err != nil {
			t.Fatalf("Failed to seed component: %v", err)
		}
		item.Components = append(item.Components, comp)
	}
	return item
}

// SeedTestDocument creates a document row pointing at storagePath
func SeedTestDocument(t *testing.T, db *gorm.DB, itemID, storagePath string) *entity.PackagingDocument {
	t.Helper()
	doc := &entity.PackagingDocument{
		ID:              uuid.New().String(),
		PackagingItemID: itemID,
		Type:            entity.DocumentTypeConformityDeclaration,
		Name:            "declaration.pdf",
		StoragePath:     storagePath,
		FileSize:        4,
		MimeType:        "application/pdf",
	}
	if err := db.Create(doc).Error; err != nil {
		t.Fatalf("Failed to seed document: %v", err)
	}
	return doc
}
