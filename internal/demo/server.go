// Package demo implements an in-memory Global HRM server seeded with
// generated employees. It serves the same endpoints as the hosted server so
// the client can be tried without network access.
package demo

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
)

const (
	formField      = "profilePic"
	maxUploadBytes = 10 << 20
	defaultAvatar  = "avatar.png"
)

type storedImage struct {
	contentType string
	data        []byte
}

// Option configures a Server.
type Option func(*Server)

// WithEmployees seeds the directory.
func WithEmployees(es ...Employee) Option {
	return func(s *Server) {
		for _, e := range es {
			s.employees[e.ID] = e
		}
	}
}

// WithAutoCreate makes unknown employee ids get a generated record on first
// access instead of an empty response.
func WithAutoCreate() Option {
	return func(s *Server) { s.autoCreate = true }
}

// WithAccessLog writes one combined-log line per request to w.
func WithAccessLog(w io.Writer) Option {
	return func(s *Server) { s.accessLog = w }
}

// WithCORS allows browser clients from origins to call the API. The Expo
// web build of the mobile app runs on a different port than the server.
func WithCORS(origins ...string) Option {
	return func(s *Server) { s.origins = origins }
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.log = l }
}

// Server is the demo HRM API.
type Server struct {
	mu         sync.RWMutex
	employees  map[string]Employee
	images     map[string]storedImage
	gen        *Generator
	autoCreate bool
	accessLog  io.Writer
	origins    []string
	log        *slog.Logger
	handler    http.Handler
}

// NewServer creates a server.
func NewServer(opts ...Option) *Server {
	s := &Server{
		employees: make(map[string]Employee),
		images:    make(map[string]storedImage),
		gen:       NewGenerator(),
		log:       slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, o := range opts {
		o(s)
	}

	s.images[defaultAvatar] = storedImage{contentType: "image/png", data: placeholderPNG()}
	s.handler = s.routes()
	return s
}

func (s *Server) routes() http.Handler {
	r := mux.NewRouter()

	emp := r.PathPrefix("/employees").Subrouter()
	emp.HandleFunc("/getPersonalDetails/{id}", s.handlePersonal).Methods("GET")
	emp.HandleFunc("/getWorkDetails/{id}", s.handleWork).Methods("GET")
	emp.HandleFunc("/getProfilePicture/{id}", s.handlePicture).Methods("GET")
	emp.HandleFunc("/uploadProfileImage/{id}", s.handleUpload).Methods("POST")
	emp.HandleFunc("/uploadAvatar/{id}", s.handleUpload).Methods("POST")

	r.HandleFunc("/images/{name}", s.handleImage).Methods("GET")
	r.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("OK"))
	}).Methods("GET")

	var h http.Handler = r
	if len(s.origins) > 0 {
		h = handlers.CORS(
			handlers.AllowedOrigins(s.origins),
			handlers.AllowedMethods([]string{"GET", "POST", "OPTIONS"}),
			handlers.AllowedHeaders([]string{"Content-Type", "X-Requested-With"}),
		)(h)
	}
	h = handlers.RecoveryHandler()(h)
	if s.accessLog != nil {
		h = handlers.LoggingHandler(s.accessLog, h)
	}
	return h
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// Employee returns a directory entry.
func (s *Server) Employee(id string) (Employee, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.employees[id]
	return e, ok
}

// IDs returns the employee ids in the directory.
func (s *Server) IDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.employees))
	for id := range s.employees {
		ids = append(ids, id)
	}
	return ids
}

// Run serves on addr until ctx is canceled.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("demo server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("demo server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("demo server shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("demo server: %w", err)
	}
	return nil
}

// lookup returns the employee, generating one when auto-create is on.
func (s *Server) lookup(id string) (Employee, bool) {
	if e, ok := s.Employee(id); ok || !s.autoCreate {
		return e, ok
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.employees[id]; ok {
		return e, true
	}
	e := s.gen.Employee(id)
	s.employees[id] = e
	s.log.Info("generated employee", "id", id, "name", e.Personal.Name)
	return e, true
}

// unknown employees get an empty body, as the hosted server does
func (s *Server) handlePersonal(w http.ResponseWriter, r *http.Request) {
	e, ok := s.lookup(mux.Vars(r)["id"])
	if !ok {
		writeJSON(w, http.StatusOK, nil)
		return
	}
	writeJSON(w, http.StatusOK, e.Personal)
}

func (s *Server) handleWork(w http.ResponseWriter, r *http.Request) {
	e, ok := s.lookup(mux.Vars(r)["id"])
	if !ok {
		writeJSON(w, http.StatusOK, nil)
		return
	}
	writeJSON(w, http.StatusOK, e.Work)
}

type pictureResponse struct {
	Message           string `json:"message,omitempty"`
	ProfilePictureURL string `json:"profilePictureUrl,omitempty"`
}

func (s *Server) handlePicture(w http.ResponseWriter, r *http.Request) {
	e, _ := s.lookup(mux.Vars(r)["id"])
	writeJSON(w, http.StatusOK, pictureResponse{ProfilePictureURL: e.Personal.ProfilePic})
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	if _, ok := s.lookup(id); !ok {
		writeError(w, http.StatusNotFound, "employee not found")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes+1<<20)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	f, hdr, err := r.FormFile(formField)
	if err != nil {
		writeError(w, http.StatusBadRequest, formField+" is required")
		return
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		writeError(w, http.StatusBadRequest, "read upload")
		return
	}

	ct := http.DetectContentType(data)
	if !strings.HasPrefix(ct, "image/") {
		writeError(w, http.StatusUnsupportedMediaType, "profilePic must be an image")
		return
	}

	name := uuid.NewString() + strings.ToLower(filepath.Ext(hdr.Filename))
	ref := "/images/" + name

	s.mu.Lock()
	s.images[name] = storedImage{contentType: ct, data: data}
	e := s.employees[id]
	e.Personal.ProfilePic = ref
	s.employees[id] = e
	s.mu.Unlock()

	s.log.Info("avatar uploaded", "id", id, "image", name, "bytes", len(data))
	writeJSON(w, http.StatusOK, pictureResponse{Message: "profile picture updated", ProfilePictureURL: ref})
}

func (s *Server) handleImage(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	img, ok := s.images[mux.Vars(r)["name"]]
	s.mu.RUnlock()

	if !ok {
		writeError(w, http.StatusNotFound, "image not found")
		return
	}

	w.Header().Set("Content-Type", img.contentType)
	w.Write(img.data)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"message": msg})
}

// placeholderPNG draws a head-and-shoulders silhouette.
func placeholderPNG() []byte {
	const size = 64
	bg := color.RGBA{0x02, 0xc3, 0xcc, 0xff}
	fg := color.RGBA{0xe6, 0xf9, 0xfa, 0xff}

	img := image.NewRGBA(image.Rect(0, 0, size, size))
	for y := range size {
		for x := range size {
			c := bg
			dx, dy := x-size/2, y-size*3/8
			if dx*dx+dy*dy <= 12*12 {
				c = fg
			}
			sx, sy := x-size/2, y-size
			if sx*sx+sy*sy <= 24*24 {
				c = fg
			}
			img.Set(x, y, c)
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		panic("encode placeholder: " + err.Error())
	}
	return buf.Bytes()
}
