package devstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"

	"github.com/HendryAvila/crewgate/internal/specstore"
)

// SeedFile is the JSON shape accepted by Seed.
type SeedFile struct {
	Personas  []specstore.PersonaSpec        `json:"personas,omitempty"`
	Workflows []specstore.WorkflowDefinition `json:"workflows,omitempty"`
	Projects  []specstore.Project            `json:"projects,omitempty"`
}

// Seed loads documents from a JSON file into the store, replacing any
// existing documents with the same ids.
func (s *Store) Seed(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("devstore: read seed file: %w", err)
	}
	var seed SeedFile
	if err := json.Unmarshal(data, &seed); err != nil {
		return fmt.Errorf("devstore: parse seed file: %w", err)
	}

	for _, p := range seed.Personas {
		if err := s.PutPersona(p); err != nil {
			return err
		}
	}
	for _, wf := range seed.Workflows {
		if err := s.PutWorkflow(wf); err != nil {
			return err
		}
	}
	for _, proj := range seed.Projects {
		if err := s.PutProject(proj); err != nil {
			return err
		}
	}
	return nil
}

// NewRouter builds the store's HTTP API. When token is non-empty, every
// request must carry it as a bearer credential.
func NewRouter(s *Store, token string) *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())

	if token != "" {
		r.Use(requireBearer(token))
	}

	v1 := r.Group("/v1")
	v1.GET("/personas", listHandler(s.ListPersonas))
	v1.GET("/personas/:id", getHandler(s.GetPersona))
	v1.GET("/workflows", listHandler(s.ListWorkflows))
	v1.GET("/workflows/:id", getHandler(s.GetWorkflow))
	v1.GET("/projects", listHandler(s.ListProjects))
	v1.GET("/projects/:id", getHandler(s.GetProject))
	v1.PATCH("/projects/:id", s.handleUpdateProject)

	return r
}

func requireBearer(token string) gin.HandlerFunc {
	want := "Bearer " + token
	return func(c *gin.Context) {
		if c.GetHeader("Authorization") != want {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		c.Next()
	}
}

func listHandler[T any](list func() ([]T, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		docs, err := list()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, docs)
	}
}

func getHandler[T any](get func(id string) (*T, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		doc, err := get(c.Param("id"))
		if errors.Is(err, ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, doc)
	}
}

func (s *Store) handleUpdateProject(c *gin.Context) {
	var fields map[string]any
	if err := c.ShouldBindJSON(&fields); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	p, err := s.UpdateProject(c.Param("id"), fields)
	if errors.Is(err, ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, p)
}
