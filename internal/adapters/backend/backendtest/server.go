// Package backendtest runs an in-memory stand-in for the project-exhibition REST API.
// It enforces the same permission and application rules as the real backend so
// dashboard tests can exercise full request flows over HTTP.
package backendtest

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"time"
)

// MaxApplicationsPerStudent mirrors the backend's per-student limit.
const MaxApplicationsPerStudent = 3

type user struct {
	id         int64
	username   string
	password   string
	firstName  string
	lastName   string
	studentID  int64 // roster id, 0 if not a student
	facultyID  int64 // roster id, 0 if not faculty
	department string
	committee  *committee
}

type committee struct {
	id             int64
	approved       bool
	degree         string
	specialization string
}

// Project is the fake backend's project row.
type Project struct {
	ID             int64
	FacultyUser    int64 // user id of the owning faculty member
	Title          string
	Abstract       string
	Timeline       string
	Difficulty     string
	Status         string
	Seats          int
	SeatsAvailable int
	IsApproved     bool
	IsDiscarded    bool
	CreatedAt      time.Time
}

// Application is the fake backend's application row.
type Application struct {
	ID          int64
	StudentUser int64
	ProjectID   int64
	Status      string
	AppliedAt   time.Time
}

type cannedFailure struct {
	status int
	body   string
}

// Server is an httptest-backed fake of the REST API.
type Server struct {
	srv *httptest.Server

	mu           sync.Mutex
	users        map[int64]*user
	byName       map[string]*user
	projects     []*Project
	applications []*Application
	calls        map[string]int
	failures     map[string]cannedFailure
	gates        map[string]chan struct{}
	nextUser     int64
	nextRoster   int64
	nextProject  int64
	nextApp      int64
	now          func() time.Time
}

// New starts a fake backend. Close it with Close.
func New() *Server {
	s := &Server{
		users:       make(map[int64]*user),
		byName:      make(map[string]*user),
		calls:       make(map[string]int),
		failures:    make(map[string]cannedFailure),
		gates:       make(map[string]chan struct{}),
		nextUser:    1,
		nextRoster:  1,
		nextProject: 1,
		nextApp:     1,
		now:         time.Now,
	}
	s.srv = httptest.NewServer(s.routes())
	return s
}

// URL returns the base URL of the fake backend.
func (s *Server) URL() string { return s.srv.URL }

// Close shuts the fake backend down.
func (s *Server) Close() {
	s.mu.Lock()
	for op, gate := range s.gates {
		close(gate)
		delete(s.gates, op)
	}
	s.mu.Unlock()
	s.srv.Close()
}

func (s *Server) addUser(username, password string) *user {
	u := &user{id: s.nextUser, username: username, password: password, firstName: strings.ToUpper(username[:1]) + username[1:]}
	s.nextUser++
	s.users[u.id] = u
	s.byName[username] = u
	return u
}

// AddStudent registers a student account and returns its user id.
func (s *Server) AddStudent(username, password string) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.addUser(username, password)
	u.studentID = s.nextRoster
	s.nextRoster++
	return u.id
}

// AddFaculty registers a faculty account in department and returns its user id.
func (s *Server) AddFaculty(username, password, department string) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.addUser(username, password)
	u.facultyID = s.nextRoster
	u.department = department
	s.nextRoster++
	return u.id
}

// AddCommittee gives an existing user a committee profile.
func (s *Server) AddCommittee(userID int64, approved bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		panic(fmt.Sprintf("backendtest: unknown user %d", userID))
	}
	u.committee = &committee{id: s.nextRoster, approved: approved}
	s.nextRoster++
}

// AddUser registers an account with no student or faculty profile.
func (s *Server) AddUser(username, password string) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addUser(username, password).id
}

// AddProject stores p and returns its id. A zero ID is assigned automatically.
func (s *Server) AddProject(p Project) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.ID == 0 {
		p.ID = s.nextProject
	}
	if p.ID >= s.nextProject {
		s.nextProject = p.ID + 1
	}
	if p.Status == "" {
		p.Status = "pending"
		if p.IsApproved {
			p.Status = "approved"
		}
	}
	if p.Difficulty == "" {
		p.Difficulty = "medium"
	}
	if p.Seats == 0 {
		p.Seats = p.SeatsAvailable
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = s.now()
	}
	cp := p
	s.projects = append(s.projects, &cp)
	return cp.ID
}

// Project returns a copy of the stored project.
func (s *Server) Project(id int64) (Project, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p := s.findProject(id); p != nil {
		return *p, true
	}
	return Project{}, false
}

// Applications returns a copy of every stored application.
func (s *Server) Applications() []Application {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Application, 0, len(s.applications))
	for _, a := range s.applications {
		out = append(out, *a)
	}
	return out
}

// Calls returns how many times "METHOD /path" was requested.
func (s *Server) Calls(op string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[op]
}

// ResetCalls zeroes the request counters.
func (s *Server) ResetCalls() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = make(map[string]int)
}

// FailNext makes the next request to op answer with status and a raw JSON body.
func (s *Server) FailNext(op string, status int, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[op] = cannedFailure{status: status, body: body}
}

// Hold blocks requests to op until the returned release func is called.
func (s *Server) Hold(op string) (release func()) {
	gate := make(chan struct{})
	s.mu.Lock()
	s.gates[op] = gate
	s.mu.Unlock()
	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			if s.gates[op] == gate {
				delete(s.gates, op)
				close(gate)
			}
			s.mu.Unlock()
		})
	}
}

// Token mints an access token for userID in the backend's JWT shape.
// The signature segment is not a real signature.
func Token(userID int64) string {
	return mint(userID, "access")
}

func mint(userID int64, kind string) string {
	enc := base64.RawURLEncoding
	header := enc.EncodeToString([]byte(`{"alg":"HS256","typ":"JWT"}`))
	payload, _ := json.Marshal(map[string]any{
		"token_type": kind,
		"exp":        time.Now().Add(time.Hour).Unix(),
		"iat":        time.Now().Unix(),
		"jti":        fmt.Sprintf("%s-%d-%d", kind, userID, time.Now().UnixNano()),
		"user_id":    userID,
	})
	return header + "." + enc.EncodeToString(payload) + "." + enc.EncodeToString([]byte("backendtest"))
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/auth/login/{$}", s.handleLogin)
	mux.HandleFunc("POST /api/signup/{$}", s.handleSignup)
	mux.HandleFunc("GET /api/students/{$}", s.authed(s.handleStudents))
	mux.HandleFunc("GET /api/faculty/{$}", s.authed(s.handleFaculty))
	mux.HandleFunc("GET /api/committees/{$}", s.authed(s.handleCommittees))
	mux.HandleFunc("POST /api/committees/apply/{$}", s.authed(s.handleCommitteeApply))
	mux.HandleFunc("GET /api/projects/{$}", s.authed(s.handleProjects))
	mux.HandleFunc("POST /api/projects/{$}", s.authed(s.handleCreateProject))
	mux.HandleFunc("GET /api/projects/my/{$}", s.authed(s.handleMyProjects))
	mux.HandleFunc("GET /api/projects/pending_review/{$}", s.authed(s.handlePendingReview))
	mux.HandleFunc("POST /api/projects/{id}/approve/{$}", s.authed(s.handleReview("approve")))
	mux.HandleFunc("POST /api/projects/{id}/reject/{$}", s.authed(s.handleReview("reject")))
	mux.HandleFunc("POST /api/applications/{$}", s.authed(s.handleCreateApplication))
	mux.HandleFunc("GET /api/applications/my/{$}", s.authed(s.handleMyApplications))
	mux.HandleFunc("GET /api/applications/faculty_applications/{$}", s.authed(s.handleFacultyApplications))
	mux.HandleFunc("POST /api/applications/{id}/select/{$}", s.authed(s.handleSelectApplication))
	mux.HandleFunc("POST /api/applications/{id}/reject/{$}", s.authed(s.handleRejectApplication))

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		op := r.Method + " " + r.URL.Path
		s.mu.Lock()
		s.calls[op]++
		gate := s.gates[op]
		f, fail := s.failures[op]
		if fail {
			delete(s.failures, op)
		}
		s.mu.Unlock()

		if gate != nil {
			select {
			case <-gate:
			case <-r.Context().Done():
				return
			}
		}
		if fail {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(f.status)
			fmt.Fprint(w, f.body)
			return
		}
		mux.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func detail(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"detail": msg})
}

func errorBody(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Username == "" || body.Password == "" {
		writeJSON(w, http.StatusBadRequest, map[string][]string{"username": {"This field is required."}})
		return
	}
	s.mu.Lock()
	u, ok := s.byName[body.Username]
	s.mu.Unlock()
	if !ok || u.password != body.Password {
		detail(w, http.StatusUnauthorized, "No active account found with the given credentials")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"access":  mint(u.id, "access"),
		"refresh": mint(u.id, "refresh"),
	})
}

// authed resolves the bearer token to a user and holds the lock for the handler.
func (s *Server) authed(h func(http.ResponseWriter, *http.Request, *user)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok {
			detail(w, http.StatusUnauthorized, "Authentication credentials were not provided.")
			return
		}
		id, err := userIDFromToken(raw)
		if err != nil {
			detail(w, http.StatusUnauthorized, "Given token not valid for any token type")
			return
		}
		s.mu.Lock()
		defer s.mu.Unlock()
		u, ok := s.users[id]
		if !ok {
			detail(w, http.StatusUnauthorized, "User not found")
			return
		}
		h(w, r, u)
	}
}

func userIDFromToken(raw string) (int64, error) {
	parts := strings.Split(raw, ".")
	if len(parts) != 3 {
		return 0, fmt.Errorf("malformed token")
	}
	payload, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		return 0, err
	}
	var claims struct {
		TokenType string `json:"token_type"`
		UserID    int64  `json:"user_id"`
	}
	if err := json.Unmarshal(payload, &claims); err != nil {
		return 0, err
	}
	if claims.TokenType != "access" {
		return 0, fmt.Errorf("not an access token")
	}
	return claims.UserID, nil
}

const noPermission = "You do not have permission to perform this action."

func (s *Server) handleStudents(w http.ResponseWriter, _ *http.Request, caller *user) {
	if caller.studentID == 0 {
		detail(w, http.StatusForbidden, noPermission)
		return
	}
	out := []map[string]any{}
	for id := int64(1); id < s.nextUser; id++ {
		if u := s.users[id]; u != nil && u.studentID != 0 {
			out = append(out, map[string]any{"id": u.studentID, "user": u.id, "roll_number": fmt.Sprintf("R%03d", u.id), "course": "BTech"})
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleFaculty(w http.ResponseWriter, _ *http.Request, caller *user) {
	if caller.facultyID == 0 {
		detail(w, http.StatusForbidden, noPermission)
		return
	}
	out := []map[string]any{}
	for id := int64(1); id < s.nextUser; id++ {
		if u := s.users[id]; u != nil && u.facultyID != 0 {
			out = append(out, map[string]any{"id": u.facultyID, "user": u.id, "department": u.department})
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCommittees(w http.ResponseWriter, _ *http.Request, caller *user) {
	if caller.facultyID == 0 {
		detail(w, http.StatusForbidden, noPermission)
		return
	}
	out := []map[string]any{}
	for id := int64(1); id < s.nextUser; id++ {
		if u := s.users[id]; u != nil && u.committee != nil {
			out = append(out, s.committeeJSON(u))
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) committeeJSON(u *user) map[string]any {
	degree := u.committee.degree
	if degree == "" {
		degree = "PhD"
	}
	return map[string]any{"id": u.committee.id, "user": u.id, "approved_by_admin": u.committee.approved, "degree": degree}
}

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Username   string `json:"username"`
		Password   string `json:"password"`
		Role       string `json:"role"`
		Department string `json:"department"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Username == "" || body.Password == "" || body.Role == "" {
		errorBody(w, http.StatusBadRequest, "username, password and role are required")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, taken := s.byName[body.Username]; taken {
		errorBody(w, http.StatusBadRequest, "Username already taken")
		return
	}
	switch body.Role {
	case "student":
		u := s.addUser(body.Username, body.Password)
		u.studentID = s.nextRoster
	case "faculty":
		u := s.addUser(body.Username, body.Password)
		u.facultyID = s.nextRoster
		u.department = body.Department
		if u.department == "" {
			u.department = "General"
		}
	default:
		errorBody(w, http.StatusBadRequest, "Invalid role")
		return
	}
	s.nextRoster++
	writeJSON(w, http.StatusCreated, map[string]string{"message": "Signup successful"})
}

func (s *Server) handleCommitteeApply(w http.ResponseWriter, r *http.Request, caller *user) {
	if caller.facultyID == 0 {
		detail(w, http.StatusForbidden, noPermission)
		return
	}
	if caller.committee != nil {
		writeJSON(w, http.StatusBadRequest, map[string][]string{"user": {"committee with this user already exists."}})
		return
	}
	var body struct {
		Degree            string `json:"degree"`
		Specialization    string `json:"specialization"`
		YearsOfExperience int    `json:"years_of_experience"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		detail(w, http.StatusBadRequest, "JSON parse error")
		return
	}
	if body.Degree == "" {
		writeJSON(w, http.StatusBadRequest, map[string][]string{"degree": {"This field is required."}})
		return
	}
	if body.Specialization == "" {
		writeJSON(w, http.StatusBadRequest, map[string][]string{"specialization": {"This field is required."}})
		return
	}
	caller.committee = &committee{id: s.nextRoster, degree: body.Degree, specialization: body.Specialization}
	s.nextRoster++
	writeJSON(w, http.StatusCreated, s.committeeJSON(caller))
}

func (s *Server) handleCreateProject(w http.ResponseWriter, r *http.Request, caller *user) {
	if caller.facultyID == 0 {
		validation(w, "Only faculty members can create projects.")
		return
	}
	var body struct {
		Title      string `json:"title"`
		Abstract   string `json:"abstract"`
		Timeline   string `json:"timeline"`
		Difficulty string `json:"difficulty"`
		Seats      *int   `json:"seats"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		detail(w, http.StatusBadRequest, "JSON parse error")
		return
	}
	switch {
	case body.Title == "":
		writeJSON(w, http.StatusBadRequest, map[string][]string{"title": {"This field is required."}})
		return
	case body.Abstract == "":
		writeJSON(w, http.StatusBadRequest, map[string][]string{"abstract": {"This field is required."}})
		return
	}
	if body.Difficulty == "" {
		body.Difficulty = "medium"
	}
	switch body.Difficulty {
	case "easy", "medium", "hard":
	default:
		writeJSON(w, http.StatusBadRequest, map[string][]string{"difficulty": {fmt.Sprintf("\"%s\" is not a valid choice.", body.Difficulty)}})
		return
	}
	seats := 1
	if body.Seats != nil {
		seats = *body.Seats
	}
	if seats < 0 {
		writeJSON(w, http.StatusBadRequest, map[string][]string{"seats": {"Ensure this value is greater than or equal to 0."}})
		return
	}
	p := &Project{
		ID:             s.nextProject,
		FacultyUser:    caller.id,
		Title:          body.Title,
		Abstract:       body.Abstract,
		Timeline:       body.Timeline,
		Difficulty:     body.Difficulty,
		Status:         "pending",
		Seats:          seats,
		SeatsAvailable: seats,
		CreatedAt:      s.now(),
	}
	s.nextProject++
	s.projects = append(s.projects, p)
	writeJSON(w, http.StatusCreated, s.projectJSON(p, false))
}

func (s *Server) findProject(id int64) *Project {
	for _, p := range s.projects {
		if p.ID == id {
			return p
		}
	}
	return nil
}

func (s *Server) applicationsFor(projectID int64) int {
	n := 0
	for _, a := range s.applications {
		if a.ProjectID == projectID {
			n++
		}
	}
	return n
}

func (s *Server) projectJSON(p *Project, withFacultyName bool) map[string]any {
	owner := s.users[p.FacultyUser]
	var facultyID int64
	if owner != nil {
		facultyID = owner.facultyID
	}
	out := map[string]any{
		"id":                 p.ID,
		"faculty":            facultyID,
		"title":              p.Title,
		"abstract":           p.Abstract,
		"timeline":           p.Timeline,
		"difficulty":         p.Difficulty,
		"status":             p.Status,
		"seats":              p.Seats,
		"seats_available":    p.SeatsAvailable,
		"is_approved":        p.IsApproved,
		"is_discarded":       p.IsDiscarded,
		"committee":          []int64{},
		"created_at":         p.CreatedAt.UTC().Format(time.RFC3339Nano),
		"applications_count": s.applicationsFor(p.ID),
	}
	if withFacultyName && owner != nil {
		name := strings.TrimSpace(owner.firstName + " " + owner.lastName)
		if name == "" {
			name = owner.username
		}
		out["faculty_name"] = name
	}
	return out
}

func (s *Server) handleProjects(w http.ResponseWriter, _ *http.Request, caller *user) {
	out := []map[string]any{}
	for _, p := range s.projects {
		if caller.studentID != 0 && !p.IsApproved {
			continue
		}
		out = append(out, s.projectJSON(p, false))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleMyProjects(w http.ResponseWriter, _ *http.Request, caller *user) {
	if caller.facultyID == 0 {
		detail(w, http.StatusForbidden, noPermission)
		return
	}
	out := []map[string]any{}
	for _, p := range s.projects {
		if p.FacultyUser == caller.id {
			out = append(out, s.projectJSON(p, false))
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handlePendingReview(w http.ResponseWriter, _ *http.Request, caller *user) {
	if caller.facultyID == 0 {
		detail(w, http.StatusForbidden, noPermission)
		return
	}
	if caller.committee == nil {
		errorBody(w, http.StatusForbidden, "Only committee members can review projects.")
		return
	}
	if !caller.committee.approved {
		errorBody(w, http.StatusForbidden, "Only approved committee members can review projects.")
		return
	}
	out := []map[string]any{}
	for _, p := range s.projects {
		owner := s.users[p.FacultyUser]
		if owner == nil || owner.id == caller.id || owner.department != caller.department {
			continue
		}
		if p.Status != "pending" || p.IsApproved {
			continue
		}
		out = append(out, s.projectJSON(p, true))
	}
	writeJSON(w, http.StatusOK, out)
}

func pathID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	return id, err == nil && id > 0
}

func (s *Server) handleReview(decision string) func(http.ResponseWriter, *http.Request, *user) {
	return func(w http.ResponseWriter, r *http.Request, caller *user) {
		if caller.facultyID == 0 {
			detail(w, http.StatusForbidden, noPermission)
			return
		}
		id, ok := pathID(r)
		p := s.findProject(id)
		if !ok || p == nil {
			detail(w, http.StatusNotFound, "Not found.")
			return
		}
		if caller.committee == nil || !caller.committee.approved {
			errorBody(w, http.StatusForbidden, fmt.Sprintf("Only approved committee members can %s projects.", decision))
			return
		}
		owner := s.users[p.FacultyUser]
		if owner == nil || owner.department != caller.department {
			errorBody(w, http.StatusForbidden, "You can only review projects from your department.")
			return
		}
		if decision == "approve" {
			p.Status, p.IsApproved, p.IsDiscarded = "approved", true, false
		} else {
			p.Status, p.IsApproved, p.IsDiscarded = "rejected", false, true
		}
		writeJSON(w, http.StatusOK, map[string]string{
			"message": fmt.Sprintf("Project '%s' %s successfully!", p.Title, decisionPast(decision)),
		})
	}
}

func decisionPast(decision string) string {
	if decision == "approve" {
		return "approved"
	}
	return "rejected"
}

func (s *Server) applicationJSON(a *Application) map[string]any {
	var studentID int64
	if u := s.users[a.StudentUser]; u != nil {
		studentID = u.studentID
	}
	return map[string]any{
		"id":         a.ID,
		"student":    studentID,
		"project":    a.ProjectID,
		"priority":   1,
		"cgpa":       nil,
		"skills":     "",
		"status":     a.Status,
		"applied_at": a.AppliedAt.UTC().Format(time.RFC3339Nano),
	}
}

func validation(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, []string{msg})
}

func (s *Server) handleCreateApplication(w http.ResponseWriter, r *http.Request, caller *user) {
	var body struct {
		Project json.Number `json:"project"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		detail(w, http.StatusBadRequest, "JSON parse error")
		return
	}
	pid, err := body.Project.Int64()
	p := s.findProject(pid)
	if err != nil || p == nil {
		writeJSON(w, http.StatusBadRequest, map[string][]string{"project": {fmt.Sprintf("Invalid pk \"%s\" - object does not exist.", body.Project)}})
		return
	}
	if caller.studentID == 0 {
		validation(w, "Only students can apply to projects.")
		return
	}
	count := 0
	for _, a := range s.applications {
		if a.StudentUser == caller.id {
			count++
			if a.ProjectID == p.ID {
				validation(w, "You have already applied to this project.")
				return
			}
		}
	}
	if count >= MaxApplicationsPerStudent {
		validation(w, "You cannot apply to more than 3 projects.")
		return
	}
	if p.SeatsAvailable <= 0 {
		validation(w, "No seats available for this project.")
		return
	}
	if !p.IsApproved {
		validation(w, "This project is not yet approved for applications.")
		return
	}
	a := &Application{ID: s.nextApp, StudentUser: caller.id, ProjectID: p.ID, Status: "pending", AppliedAt: s.now()}
	s.nextApp++
	s.applications = append(s.applications, a)
	p.SeatsAvailable--
	writeJSON(w, http.StatusCreated, s.applicationJSON(a))
}

func (s *Server) handleMyApplications(w http.ResponseWriter, _ *http.Request, caller *user) {
	if caller.studentID == 0 {
		detail(w, http.StatusForbidden, noPermission)
		return
	}
	out := []map[string]any{}
	for _, a := range s.applications {
		if a.StudentUser == caller.id {
			out = append(out, s.applicationJSON(a))
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleFacultyApplications(w http.ResponseWriter, _ *http.Request, caller *user) {
	if caller.facultyID == 0 {
		detail(w, http.StatusForbidden, noPermission)
		return
	}
	out := []map[string]any{}
	for _, a := range s.applications {
		if p := s.findProject(a.ProjectID); p != nil && p.FacultyUser == caller.id {
			out = append(out, s.applicationJSON(a))
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) ownedApplication(w http.ResponseWriter, r *http.Request, caller *user) (*Application, *Project, bool) {
	if caller.facultyID == 0 {
		detail(w, http.StatusForbidden, noPermission)
		return nil, nil, false
	}
	id, ok := pathID(r)
	var app *Application
	for _, a := range s.applications {
		if ok && a.ID == id {
			app = a
		}
	}
	if app == nil {
		detail(w, http.StatusNotFound, "Not found.")
		return nil, nil, false
	}
	p := s.findProject(app.ProjectID)
	if p == nil || p.FacultyUser != caller.id {
		detail(w, http.StatusForbidden, "Not allowed")
		return nil, nil, false
	}
	return app, p, true
}

func (s *Server) handleSelectApplication(w http.ResponseWriter, r *http.Request, caller *user) {
	app, _, ok := s.ownedApplication(w, r, caller)
	if !ok {
		return
	}
	for _, a := range s.applications {
		if a.StudentUser == app.StudentUser && a.Status == "selected" {
			errorBody(w, http.StatusBadRequest, "Student is already selected for another project")
			return
		}
	}
	app.Status = "selected"
	for _, a := range s.applications {
		if a.StudentUser == app.StudentUser && a.ID != app.ID {
			a.Status = "rejected"
		}
	}
	writeJSON(w, http.StatusOK, s.applicationJSON(app))
}

func (s *Server) handleRejectApplication(w http.ResponseWriter, r *http.Request, caller *user) {
	app, p, ok := s.ownedApplication(w, r, caller)
	if !ok {
		return
	}
	app.Status = "rejected"
	p.SeatsAvailable++
	writeJSON(w, http.StatusOK, s.applicationJSON(app))
}
