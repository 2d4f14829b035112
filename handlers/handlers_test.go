package handlers_test

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"kidsclub_backend/db"
	"kidsclub_backend/middleware"
	"kidsclub_backend/routes"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

var jwtSecret = []byte("test-secret")

type fixture struct {
	db     *sql.DB
	router *gin.Engine
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	conn, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	conn.SetMaxOpenConns(1)
	t.Cleanup(func() { conn.Close() })
	require.NoError(t, db.InitSchema(conn))

	router := gin.New()
	routes.SetupRoutes(router, conn, jwtSecret)
	return &fixture{db: conn, router: router}
}

func (f *fixture) addUser(t *testing.T, username, password, role string, programs ...string) {
	t.Helper()
	hash, err := middleware.HashPassword(password)
	require.NoError(t, err)
	res, err := f.db.Exec(
		"INSERT INTO users (username, password_hash, role) VALUES (?, ?, ?)",
		username, hash, role,
	)
	require.NoError(t, err)
	userID, err := res.LastInsertId()
	require.NoError(t, err)

	for _, program := range programs {
		var programID int
		require.NoError(t, f.db.QueryRow("SELECT id FROM programs WHERE name = ?", program).Scan(&programID))
		_, err := f.db.Exec("INSERT INTO user_programs (user_id, program_id) VALUES (?, ?)", userID, programID)
		require.NoError(t, err)
	}
}

func (f *fixture) addProgram(t *testing.T, name string) {
	t.Helper()
	_, err := f.db.Exec("INSERT INTO programs (name) VALUES (?)", name)
	require.NoError(t, err)
}

func (f *fixture) addKid(t *testing.T, id, name, program string) {
	t.Helper()
	_, err := f.db.Exec("INSERT INTO kids (id, name, age, program) VALUES (?, ?, 8, ?)", id, name, program)
	require.NoError(t, err)
}

func (f *fixture) login(t *testing.T, username, password string) string {
	access, _ := f.loginTokens(t, username, password)
	return access
}

func (f *fixture) loginTokens(t *testing.T, username, password string) (string, string) {
	t.Helper()
	w := f.request(t, "POST", "/login", gin.H{"username": username, "password": password}, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp["access_token"])
	require.NotEmpty(t, resp["refresh_token"])
	return resp["access_token"], resp["refresh_token"]
}

func (f *fixture) request(t *testing.T, method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	f := newFixture(t)
	f.addUser(t, "admin", "correct-password", "admin")

	w := f.request(t, "POST", "/login", gin.H{"username": "admin", "password": "wrong"}, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = f.request(t, "POST", "/login", gin.H{"username": "nobody", "password": "whatever"}, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestUserInfoIncludesAssignedPrograms(t *testing.T) {
	f := newFixture(t)
	f.addProgram(t, "Football")
	f.addProgram(t, "Art")
	f.addUser(t, "leader1", "password123", "leader", "Football", "Art")
	token := f.login(t, "leader1", "password123")

	w := f.request(t, "GET", "/userinfo", nil, token)
	require.Equal(t, http.StatusOK, w.Code)

	var profile struct {
		Username string   `json:"username"`
		Role     string   `json:"role"`
		Programs []string `json:"programs"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &profile))
	assert.Equal(t, "leader1", profile.Username)
	assert.Equal(t, "leader", profile.Role)
	assert.Equal(t, []string{"Art", "Football"}, profile.Programs)
}

func TestCreateProgramRejectsCaseInsensitiveDuplicate(t *testing.T) {
	f := newFixture(t)
	f.addUser(t, "admin", "password123", "admin")
	token := f.login(t, "admin", "password123")

	w := f.request(t, "POST", "/programs", gin.H{"name": "Football"}, token)
	assert.Equal(t, http.StatusCreated, w.Code)

	w = f.request(t, "POST", "/programs", gin.H{"name": "FOOTBALL"}, token)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestCreateProgramRequiresAdmin(t *testing.T) {
	f := newFixture(t)
	f.addProgram(t, "Football")
	f.addUser(t, "leader1", "password123", "leader", "Football")
	token := f.login(t, "leader1", "password123")

	w := f.request(t, "POST", "/programs", gin.H{"name": "Chess"}, token)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestKidsListIsScoped(t *testing.T) {
	f := newFixture(t)
	f.addProgram(t, "Football")
	f.addProgram(t, "Art")
	f.addKid(t, "k1", "Mia", "Football")
	f.addKid(t, "k2", "Leo", "Art")
	f.addUser(t, "leader1", "password123", "leader", "Football")
	f.addUser(t, "admin", "password123", "admin")

	leaderToken := f.login(t, "leader1", "password123")
	w := f.request(t, "GET", "/kids", nil, leaderToken)
	require.Equal(t, http.StatusOK, w.Code)
	var kids []map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &kids))
	require.Len(t, kids, 1)
	assert.Equal(t, "Mia", kids[0]["name"])

	adminToken := f.login(t, "admin", "password123")
	w = f.request(t, "GET", "/kids", nil, adminToken)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &kids))
	assert.Len(t, kids, 2)
}

func TestMarkAttendanceRoundTrip(t *testing.T) {
	f := newFixture(t)
	f.addProgram(t, "Football")
	f.addKid(t, "k1", "Mia", "Football")
	f.addKid(t, "k2", "Leo", "Football")
	f.addUser(t, "leader1", "password123", "leader", "Football")
	token := f.login(t, "leader1", "password123")

	w := f.request(t, "PUT", "/attendance", gin.H{
		"date": "2024-03-01",
		"entries": []gin.H{
			{"kid_id": "k1", "present": true},
			{"kid_id": "k2", "present": false, "note": "late"},
		},
	}, token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = f.request(t, "GET", "/attendance?date=2024-03-01", nil, token)
	require.Equal(t, http.StatusOK, w.Code)

	var sheet struct {
		Date string `json:"date"`
		Kids []struct {
			KidID   string `json:"kid_id"`
			Marked  bool   `json:"marked"`
			Present bool   `json:"present"`
			Note    string `json:"note"`
		} `json:"kids"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &sheet))
	require.Len(t, sheet.Kids, 2)
	byID := make(map[string]struct {
		Marked  bool
		Present bool
		Note    string
	})
	for _, kid := range sheet.Kids {
		byID[kid.KidID] = struct {
			Marked  bool
			Present bool
			Note    string
		}{kid.Marked, kid.Present, kid.Note}
	}
	assert.True(t, byID["k1"].Marked)
	assert.True(t, byID["k1"].Present)
	assert.True(t, byID["k2"].Marked)
	assert.False(t, byID["k2"].Present)
	assert.Equal(t, "late", byID["k2"].Note)
}

func TestMarkAttendanceOutOfScopeIsForbidden(t *testing.T) {
	f := newFixture(t)
	f.addProgram(t, "Football")
	f.addProgram(t, "Art")
	f.addKid(t, "k1", "Mia", "Football")
	f.addKid(t, "outsider", "Leo", "Art")
	f.addUser(t, "leader1", "password123", "leader", "Football")
	token := f.login(t, "leader1", "password123")

	w := f.request(t, "PUT", "/attendance", gin.H{
		"date": "2024-03-01",
		"entries": []gin.H{
			{"kid_id": "k1", "present": true},
			{"kid_id": "outsider", "present": true},
		},
	}, token)
	assert.Equal(t, http.StatusForbidden, w.Code)

	// nothing was written
	var count int
	require.NoError(t, f.db.QueryRow("SELECT COUNT(*) FROM attendance").Scan(&count))
	assert.Zero(t, count)
}

func TestCreateKidStoresRegistryProgramCasing(t *testing.T) {
	f := newFixture(t)
	f.addProgram(t, "Football")
	f.addUser(t, "admin", "password123", "admin")
	f.addUser(t, "leader1", "password123", "leader", "Football")

	adminToken := f.login(t, "admin", "password123")
	w := f.request(t, "POST", "/kids", gin.H{
		"name": "Mia", "age": 8, "program": "football",
	}, adminToken)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var created map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Equal(t, "Football", created["program"])

	var stored string
	require.NoError(t, f.db.QueryRow("SELECT program FROM kids WHERE name = 'Mia'").Scan(&stored))
	assert.Equal(t, "Football", stored)

	// the kid must be visible to the program's leader
	leaderToken := f.login(t, "leader1", "password123")
	w = f.request(t, "GET", "/kids", nil, leaderToken)
	require.Equal(t, http.StatusOK, w.Code)
	var kids []map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &kids))
	require.Len(t, kids, 1)
	assert.Equal(t, "Mia", kids[0]["name"])

	// a leader submitting a differently-cased program name stays in scope
	w = f.request(t, "POST", "/kids", gin.H{
		"name": "Leo", "age": 9, "program": "FOOTBALL",
	}, leaderToken)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	require.NoError(t, f.db.QueryRow("SELECT program FROM kids WHERE name = 'Leo'").Scan(&stored))
	assert.Equal(t, "Football", stored)
}

func TestLogoutRevokesRefreshToken(t *testing.T) {
	f := newFixture(t)
	f.addUser(t, "admin", "password123", "admin")
	access, refresh := f.loginTokens(t, "admin", "password123")

	w := f.request(t, "POST", "/logout", gin.H{"refresh_token": refresh}, access)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = f.request(t, "POST", "/refresh", gin.H{"refresh_token": refresh}, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestImportKidsCSV(t *testing.T) {
	f := newFixture(t)
	f.addProgram(t, "Football")
	f.addUser(t, "admin", "password123", "admin")
	token := f.login(t, "admin", "password123")

	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)
	part, err := form.CreateFormFile("file", "roster.csv")
	require.NoError(t, err)
	_, err = part.Write([]byte("Name,Age,Gender,Program\nMia,8,Female,Football\nLeo,9,Male,Football\n"))
	require.NoError(t, err)
	require.NoError(t, form.Close())

	req := httptest.NewRequest("POST", "/import/kids", &buf)
	req.Header.Set("Content-Type", form.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var count int
	require.NoError(t, f.db.QueryRow("SELECT COUNT(*) FROM kids WHERE program = 'Football'").Scan(&count))
	assert.Equal(t, 2, count)
}

func TestImportKidsUsesRegistryProgramCasing(t *testing.T) {
	f := newFixture(t)
	f.addProgram(t, "Football")
	f.addUser(t, "admin", "password123", "admin")
	token := f.login(t, "admin", "password123")

	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)
	part, err := form.CreateFormFile("file", "roster.csv")
	require.NoError(t, err)
	_, err = part.Write([]byte("Name,Age,Program\nMia,8,FOOTBALL\n"))
	require.NoError(t, err)
	require.NoError(t, form.Close())

	req := httptest.NewRequest("POST", "/import/kids", &buf)
	req.Header.Set("Content-Type", form.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var stored string
	require.NoError(t, f.db.QueryRow("SELECT program FROM kids WHERE name = 'Mia'").Scan(&stored))
	assert.Equal(t, "Football", stored)
}

func TestImportKidsUnknownProgram(t *testing.T) {
	f := newFixture(t)
	f.addUser(t, "admin", "password123", "admin")
	token := f.login(t, "admin", "password123")

	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)
	part, err := form.CreateFormFile("file", "roster.csv")
	require.NoError(t, err)
	_, err = part.Write([]byte("Name,Age,Program\nMia,8,Ghost\n"))
	require.NoError(t, err)
	require.NoError(t, form.Close())

	req := httptest.NewRequest("POST", "/import/kids", &buf)
	req.Header.Set("Content-Type", form.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)

	var count int
	require.NoError(t, f.db.QueryRow("SELECT COUNT(*) FROM kids").Scan(&count))
	assert.Zero(t, count)
}

func TestExportAttendanceCSVIsScoped(t *testing.T) {
	f := newFixture(t)
	f.addProgram(t, "Football")
	f.addProgram(t, "Art")
	f.addKid(t, "k1", "Mia", "Football")
	f.addKid(t, "k2", "Leo", "Art")
	f.addUser(t, "leader1", "password123", "leader", "Football")
	f.addUser(t, "leader2", "password123", "leader", "Art")

	tokenA := f.login(t, "leader1", "password123")
	tokenB := f.login(t, "leader2", "password123")

	w := f.request(t, "PUT", "/attendance", gin.H{
		"date":    "2024-03-01",
		"entries": []gin.H{{"kid_id": "k1", "present": true}},
	}, tokenA)
	require.Equal(t, http.StatusOK, w.Code)
	w = f.request(t, "PUT", "/attendance", gin.H{
		"date":    "2024-03-01",
		"entries": []gin.H{{"kid_id": "k2", "present": true}},
	}, tokenB)
	require.Equal(t, http.StatusOK, w.Code)

	w = f.request(t, "GET", "/export/attendance.csv", nil, tokenA)
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "k1")
	assert.NotContains(t, body, "k2")
}
