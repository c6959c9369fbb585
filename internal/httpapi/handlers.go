package httpapi

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"github.com/cuemap/cuemap/internal/engine"
	"github.com/cuemap/cuemap/internal/jobs"
	"github.com/cuemap/cuemap/internal/project"
)

const defaultRecallLimit = 10

// --- POST /memories ---

type createMemoryRequest struct {
	Content  string         `json:"content"`
	Cues     []string       `json:"cues"`
	Metadata map[string]any `json:"metadata"`
}

func (s *Server) handleCreateMemory(c *gin.Context) {
	var req createMemoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	proj, err := s.Tenant.GetOrCreate(requestProjectID(c))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	normalized := make([]string, 0, len(req.Cues))
	for _, raw := range req.Cues {
		n, _ := proj.Normalization.Normalize(raw)
		normalized = append(normalized, n)
	}
	report := proj.Taxonomy.Validate(normalized)

	defer observeLatency("memories.add", time.Now())
	id := proj.Memories.Add(req.Content, report.Accepted, req.Metadata)

	if s.Jobs != nil {
		s.Jobs.Enqueue(jobs.TrainLexiconFromMemory{ProjectID: proj.ID, MemoryID: id})
		s.Jobs.Enqueue(jobs.LlmProposeCues{ProjectID: proj.ID, MemoryID: id, Content: req.Content})
	}

	c.JSON(http.StatusOK, gin.H{
		"id":            id,
		"status":        "stored",
		"rejected_cues": report.Rejected,
	})
}

// --- POST /recall ---

type recallRequest struct {
	Cues            []string `json:"cues"`
	QueryText       string   `json:"query_text"`
	Limit           int      `json:"limit"`
	AutoReinforce   bool     `json:"auto_reinforce"`
	Projects        []string `json:"projects"`
	MinIntersection int      `json:"min_intersection"`
	Explain         bool     `json:"explain"`
}

// resolveQueryCues turns a recall request's cues[]/query_text into the
// canonical cue list the ranker consumes: explicit cues are normalized
// as-is, free text is resolved through the Lexicon.
func resolveQueryCues(proj *project.Project, req recallRequest) []string {
	if len(req.Cues) > 0 {
		out := make([]string, 0, len(req.Cues))
		for _, raw := range req.Cues {
			n, _ := proj.Normalization.Normalize(raw)
			out = append(out, n)
		}
		return out
	}
	if req.QueryText != "" {
		return proj.ResolveText(req.QueryText)
	}
	return nil
}

func (s *Server) recallOne(proj *project.Project, req recallRequest) []engine.Result {
	cues := resolveQueryCues(proj, req)
	expanded := proj.ExpandQuery(cues)
	return proj.Memories.Recall(expanded, engine.RecallOptions{
		Limit:           req.Limit,
		MinIntersection: req.MinIntersection,
		AutoReinforce:   req.AutoReinforce,
		Explain:         req.Explain,
	})
}

func (s *Server) handleRecall(c *gin.Context) {
	var req recallRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Limit <= 0 {
		req.Limit = defaultRecallLimit
	}

	start := time.Now()
	defer func() { observeLatency("recall", start) }()

	if len(req.Projects) > 0 {
		var mu sync.Mutex
		byProject := make(map[string][]engine.Result, len(req.Projects))
		var g errgroup.Group
		for _, pid := range req.Projects {
			pid := pid
			proj, ok := s.Tenant.GetProject(pid)
			if !ok {
				continue
			}
			g.Go(func() error {
				results := s.recallOne(proj, req)
				mu.Lock()
				byProject[pid] = results
				mu.Unlock()
				return nil
			})
		}
		_ = g.Wait()
		c.JSON(http.StatusOK, gin.H{
			"results":        byProject,
			"engine_latency": time.Since(start).String(),
			"explain":        req.Explain,
		})
		return
	}

	proj, err := s.Tenant.GetOrCreate(requestProjectID(c))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	results := s.recallOne(proj, req)
	c.JSON(http.StatusOK, gin.H{
		"results":        results,
		"engine_latency": time.Since(start).String(),
		"explain":        req.Explain,
	})
}

// --- PATCH /memories/:id/reinforce ---

type reinforceRequest struct {
	Cues []string `json:"cues"`
}

func (s *Server) handleReinforce(c *gin.Context) {
	id := c.Param("id")
	var req reinforceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	proj, err := s.Tenant.GetOrCreate(requestProjectID(c))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	cues := make([]string, 0, len(req.Cues))
	for _, raw := range req.Cues {
		n, _ := proj.Normalization.Normalize(raw)
		cues = append(cues, n)
	}

	status := "not_found"
	if proj.Memories.Reinforce(id, cues) {
		status = "reinforced"
	}
	c.JSON(http.StatusOK, gin.H{"status": status, "memory_id": id})
}

// --- GET /memories/:id ---

func (s *Server) handleGetMemory(c *gin.Context) {
	proj, err := s.Tenant.GetOrCreate(requestProjectID(c))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	mem := proj.Memories.Get(c.Param("id"))
	if mem == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "memory not found"})
		return
	}
	c.JSON(http.StatusOK, mem)
}

// --- GET /stats ---

func (s *Server) handleStats(c *gin.Context) {
	proj, err := s.Tenant.GetOrCreate(requestProjectID(c))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, proj.Stats())
}

// --- POST /recall/grounded ---

type groundedRequest struct {
	QueryText   string   `json:"query_text"`
	TokenBudget int      `json:"token_budget"`
	Limit       int      `json:"limit"`
	Projects    []string `json:"projects"`
}

func (s *Server) handleRecallGrounded(c *gin.Context) {
	var req groundedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.QueryText == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "query_text is required"})
		return
	}

	start := time.Now()
	defer func() { observeLatency("recall_grounded", start) }()

	if len(req.Projects) > 0 {
		var mu sync.Mutex
		byProject := make(map[string]project.GroundingResult, len(req.Projects))
		var g errgroup.Group
		for _, pid := range req.Projects {
			pid := pid
			proj, ok := s.Tenant.GetProject(pid)
			if !ok {
				continue
			}
			g.Go(func() error {
				result := proj.RecallGrounded(req.QueryText, req.TokenBudget, req.Limit)
				mu.Lock()
				byProject[pid] = result
				mu.Unlock()
				return nil
			})
		}
		_ = g.Wait()
		c.JSON(http.StatusOK, gin.H{
			"results":           byProject,
			"engine_latency_ms": time.Since(start).Milliseconds(),
		})
		return
	}

	proj, err := s.Tenant.GetOrCreate(requestProjectID(c))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	result := proj.RecallGrounded(req.QueryText, req.TokenBudget, req.Limit)
	c.JSON(http.StatusOK, gin.H{
		"verified_context":  result.VerifiedContext,
		"proof":             result.Proof,
		"engine_latency_ms": time.Since(start).Milliseconds(),
	})
}

// --- GET /projects ---

func (s *Server) handleListProjects(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"projects": s.Tenant.List()})
}

// --- DELETE /projects/:id ---

func (s *Server) handleDeleteProject(c *gin.Context) {
	id := c.Param("id")
	if !s.Tenant.Delete(id) {
		c.JSON(http.StatusNotFound, gin.H{"status": "not_found", "project_id": id})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted", "project_id": id})
}
