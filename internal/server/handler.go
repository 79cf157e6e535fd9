package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/RyanHill92/rootzone/internal/reference"
	"github.com/RyanHill92/rootzone/internal/site"
)

// HealthReport offers a deep look into the intricacies of app health.
type HealthReport struct {
	Status string `json:"status"`
}

// ErrorResponse reports an error.
type ErrorResponse struct {
	Message string `json:"message"`
}

// ClickResponse carries the stored click and, on every second click, the
// section it completed.
type ClickResponse struct {
	Click   site.Click    `json:"click"`
	Section *site.Section `json:"section"`
}

// ProfilesResponse lists the sampled sections of a site along with the trees
// that could not be modelled.
type ProfilesResponse struct {
	Profiles []site.SectionProfile `json:"profiles"`
	Skipped  []site.Skip           `json:"skipped"`
}

type createSiteRequest struct {
	Name    string      `json:"name"`
	Address string      `json:"address"`
	Params  site.Params `json:"params"`
}

// ReportHealth says the service is up.
func (s *Server) ReportHealth(w http.ResponseWriter, req *http.Request) {
	report := HealthReport{Status: "so healthy right now!"}
	sendJSON(w, http.StatusOK, report)
}

// ListSpecies returns the species table the model resolves trees against.
func (s *Server) ListSpecies(w http.ResponseWriter, req *http.Request) {
	catalog := s.model.Catalog()
	names := catalog.SpeciesNames()
	species := make([]reference.Species, 0, len(names))
	for _, name := range names {
		sp, err := catalog.Species(name)
		if err != nil {
			s.fail(w, err)
			return
		}
		species = append(species, sp)
	}
	sendJSON(w, http.StatusOK, species)
}

// ListSites returns every site.
func (s *Server) ListSites(w http.ResponseWriter, req *http.Request) {
	sites, err := s.store.ListSites()
	if err != nil {
		s.fail(w, err)
		return
	}

	if len(sites) == 0 {
		sendError(w, "no sites yet", http.StatusNotFound)
		return
	}

	sendJSON(w, http.StatusOK, sites)
}

// CreateSite starts a new site. Parameters left out of the body keep the
// configured defaults.
func (s *Server) CreateSite(w http.ResponseWriter, req *http.Request) {
	body := createSiteRequest{Params: s.defaults}
	if err := decode(req, &body); err != nil {
		sendError(w, "error decoding request body as Site", http.StatusBadRequest)
		return
	}
	if body.Name == "" {
		sendError(w, "must specify a non-empty name", http.StatusBadRequest)
		return
	}
	if err := site.ValidateParams(&body.Params); err != nil {
		sendError(w, err.Error(), http.StatusBadRequest)
		return
	}

	st := site.Site{Name: body.Name, Address: body.Address, Params: body.Params}
	if err := s.store.CreateSite(&st); err != nil {
		s.fail(w, err)
		return
	}

	s.log.Info("site created", zap.String("site", st.ID), zap.String("name", st.Name))
	sendJSON(w, http.StatusCreated, st)
}

// GetSite returns one site.
func (s *Server) GetSite(w http.ResponseWriter, req *http.Request) {
	siteID, err := getSiteID(req)
	if err != nil {
		sendError(w, err.Error(), http.StatusBadRequest)
		return
	}

	st, err := s.store.GetSite(siteID)
	if err != nil {
		s.fail(w, err)
		return
	}

	sendJSON(w, http.StatusOK, st)
}

// DeleteSite drops a site with its trees, sections and clicks.
func (s *Server) DeleteSite(w http.ResponseWriter, req *http.Request) {
	siteID, err := getSiteID(req)
	if err != nil {
		sendError(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := s.store.DeleteSite(siteID); err != nil {
		s.fail(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// UpdateParams replaces the global parameters of a site. Fields missing
// from the body keep their current values; invalid input leaves the site
// untouched.
func (s *Server) UpdateParams(w http.ResponseWriter, req *http.Request) {
	siteID, err := getSiteID(req)
	if err != nil {
		sendError(w, err.Error(), http.StatusBadRequest)
		return
	}

	st, err := s.store.GetSite(siteID)
	if err != nil {
		s.fail(w, err)
		return
	}

	params := st.Params
	if err := decode(req, &params); err != nil {
		sendError(w, "error decoding request body as Params", http.StatusBadRequest)
		return
	}
	if err := site.ValidateParams(&params); err != nil {
		sendError(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := s.store.UpdateParams(siteID, params); err != nil {
		s.fail(w, err)
		return
	}

	sendJSON(w, http.StatusOK, params)
}

// ListTrees lists all trees placed on a site.
func (s *Server) ListTrees(w http.ResponseWriter, req *http.Request) {
	siteID, err := getSiteID(req)
	if err != nil {
		sendError(w, err.Error(), http.StatusBadRequest)
		return
	}

	trees, err := s.store.ListTrees(siteID)
	if err != nil {
		s.fail(w, err)
		return
	}

	sendJSON(w, http.StatusOK, trees)
}

// AddTree places a tree on a site. Species are not checked here: a tree the
// reference data cannot resolve is reported as skipped when the surface is
// computed.
func (s *Server) AddTree(w http.ResponseWriter, req *http.Request) {
	siteID, err := getSiteID(req)
	if err != nil {
		sendError(w, err.Error(), http.StatusBadRequest)
		return
	}

	var tree site.Tree
	if err := decode(req, &tree); err != nil {
		sendError(w, "error decoding request body as Tree", http.StatusBadRequest)
		return
	}
	if err := site.ValidateTree(&tree); err != nil {
		sendError(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := s.store.AddTree(siteID, &tree); err != nil {
		s.fail(w, err)
		return
	}

	sendJSON(w, http.StatusCreated, tree)
}

// RemoveTree takes a tree off a site.
func (s *Server) RemoveTree(w http.ResponseWriter, req *http.Request) {
	siteID, err := getSiteID(req)
	if err != nil {
		sendError(w, err.Error(), http.StatusBadRequest)
		return
	}
	treeID, err := getID(req, "treeID")
	if err != nil {
		sendError(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := s.store.RemoveTree(siteID, treeID); err != nil {
		s.fail(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ListSections lists the section lines drawn on a site.
func (s *Server) ListSections(w http.ResponseWriter, req *http.Request) {
	siteID, err := getSiteID(req)
	if err != nil {
		sendError(w, err.Error(), http.StatusBadRequest)
		return
	}

	sections, err := s.store.ListSections(siteID)
	if err != nil {
		s.fail(w, err)
		return
	}

	sendJSON(w, http.StatusOK, sections)
}

// AddSection draws a section line. An empty label gets the next letter pair
// and an empty colour the default red.
func (s *Server) AddSection(w http.ResponseWriter, req *http.Request) {
	siteID, err := getSiteID(req)
	if err != nil {
		sendError(w, err.Error(), http.StatusBadRequest)
		return
	}

	var sec site.Section
	if err := decode(req, &sec); err != nil {
		sendError(w, "error decoding request body as Section", http.StatusBadRequest)
		return
	}
	if err := site.ValidateSection(&sec); err != nil {
		sendError(w, err.Error(), http.StatusBadRequest)
		return
	}

	if sec.Label == "" {
		existing, err := s.store.ListSections(siteID)
		if err != nil {
			s.fail(w, err)
			return
		}
		labels := make([]string, len(existing))
		for i, e := range existing {
			labels[i] = e.Label
		}
		sec.Label = site.NextSectionLabel(labels)
	}
	if sec.Color == "" {
		sec.Color = site.DefaultSectionColor
	}

	if err := s.store.AddSection(siteID, &sec); err != nil {
		s.fail(w, err)
		return
	}

	sendJSON(w, http.StatusCreated, sec)
}

// RemoveSection erases a section line.
func (s *Server) RemoveSection(w http.ResponseWriter, req *http.Request) {
	siteID, err := getSiteID(req)
	if err != nil {
		sendError(w, err.Error(), http.StatusBadRequest)
		return
	}
	sectionID, err := getID(req, "sectionID")
	if err != nil {
		sendError(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := s.store.RemoveSection(siteID, sectionID); err != nil {
		s.fail(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// AddClick records a point picked on the plan. Every second click closes a
// new section line between the pair.
func (s *Server) AddClick(w http.ResponseWriter, req *http.Request) {
	siteID, err := getSiteID(req)
	if err != nil {
		sendError(w, err.Error(), http.StatusBadRequest)
		return
	}

	var click site.Click
	if err := decode(req, &click); err != nil {
		sendError(w, "error decoding request body as Click", http.StatusBadRequest)
		return
	}
	if err := site.ValidatePoint(click.X, click.Y); err != nil {
		sendError(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := s.store.AddClick(siteID, &click); err != nil {
		s.fail(w, err)
		return
	}
	sec, err := s.store.PairClicks(siteID)
	if err != nil {
		s.fail(w, err)
		return
	}

	sendJSON(w, http.StatusCreated, ClickResponse{Click: click, Section: sec})
}

// GetSurface composes the influence surface of a site.
func (s *Server) GetSurface(w http.ResponseWriter, req *http.Request) {
	res, ok := s.compute(w, req, false)
	if !ok {
		return
	}
	sendJSON(w, http.StatusOK, res)
}

// GetSurfaceASCII composes the surface and writes it as an ESRI ASCII grid.
func (s *Server) GetSurfaceASCII(w http.ResponseWriter, req *http.Request) {
	res, ok := s.compute(w, req, false)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := res.Surface.WriteASCII(&buf); err != nil {
		s.fail(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	buf.WriteTo(w)
}

// GetProfiles samples every section line of a site.
func (s *Server) GetProfiles(w http.ResponseWriter, req *http.Request) {
	res, ok := s.compute(w, req, true)
	if !ok {
		return
	}
	sendJSON(w, http.StatusOK, ProfilesResponse{Profiles: res.Profiles, Skipped: res.Skipped})
}

// compute loads a site and runs the model over it. It writes the error
// response itself and reports whether the caller should go on.
func (s *Server) compute(w http.ResponseWriter, req *http.Request, withSections bool) (site.Result, bool) {
	siteID, err := getSiteID(req)
	if err != nil {
		sendError(w, err.Error(), http.StatusBadRequest)
		return site.Result{}, false
	}

	st, err := s.store.GetSite(siteID)
	if err != nil {
		s.fail(w, err)
		return site.Result{}, false
	}
	trees, err := s.store.ListTrees(siteID)
	if err != nil {
		s.fail(w, err)
		return site.Result{}, false
	}
	var sections []site.Section
	if withSections {
		sections, err = s.store.ListSections(siteID)
		if err != nil {
			s.fail(w, err)
			return site.Result{}, false
		}
	}

	res, err := s.model.Compute(req.Context(), st.Params, trees, sections)
	if err != nil {
		s.fail(w, err)
		return site.Result{}, false
	}
	if len(res.Skipped) > 0 {
		s.log.Info("trees left out of surface",
			zap.String("site", siteID),
			zap.Int("skipped", len(res.Skipped)))
	}
	return res, true
}

// fail maps store and model errors onto status codes. Anything unexpected
// is logged and reported as a server error.
func (s *Server) fail(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, site.ErrNoMatchingRecord):
		sendError(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, site.ErrDuplicateTree):
		sendError(w, err.Error(), http.StatusConflict)
	case errors.Is(err, site.ErrInvalidInput):
		sendError(w, err.Error(), http.StatusBadRequest)
	default:
		s.log.Error("request failed", zap.Error(err))
		sendError(w, "server error", http.StatusInternalServerError)
	}
}

func decode(req *http.Request, v interface{}) error {
	return json.NewDecoder(req.Body).Decode(v)
}

func getSiteID(req *http.Request) (string, error) {
	siteID := mux.Vars(req)["siteID"]
	if _, err := uuid.Parse(siteID); err != nil {
		return "", errors.New("path must include a valid site ID")
	}
	return siteID, nil
}

func getID(req *http.Request, key string) (int64, error) {
	id, err := strconv.ParseInt(mux.Vars(req)[key], 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("path must include a valid, non-zero %s", key)
	}
	return id, nil
}

func sendError(w http.ResponseWriter, msg string, status int) {
	sendJSON(w, status, ErrorResponse{Message: msg})
}

func sendJSON(w http.ResponseWriter, status int, object interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(object)
}
