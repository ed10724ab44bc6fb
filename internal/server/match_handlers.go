package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/zulandar/jobyard/internal/profile"
	"github.com/zulandar/jobyard/internal/search"
	"go.uber.org/zap"
)

type saveProfileRequest struct {
	UserType *string `json:"user_type"`
	Email    *string `json:"email"`
	Bio      *string `json:"bio"`
	Skills   *string `json:"skills"`
	Projects *string `json:"projects"`
	City     *string `json:"city"`
	Privacy  *string `json:"privacy"`
}

// handleSaveProfile saves a profile and recomputes the candidate's matches
// before responding.
func (a *api) handleSaveProfile(c *gin.Context) {
	userID, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req saveProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	ctx := c.Request.Context()
	res, err := profile.Save(ctx, a.db, userID, profile.Update(req), a.geocoder)
	if err != nil {
		abortWithError(c, err)
		return
	}
	if res.GeocodeErr != nil {
		a.log.Warn("geocode city", zap.Uint("user_id", userID), zap.Error(res.GeocodeErr))
	}

	recomputed, err := a.engine.RecomputeForCandidate(ctx, userID)
	if err != nil {
		abortWithError(c, err)
		return
	}
	status := http.StatusOK
	if res.Created {
		status = http.StatusCreated
	}
	matched := recomputed.Matched
	if matched == nil {
		matched = []uint{}
	}
	c.JSON(status, gin.H{
		"profile":          newProfileView(*res.Profile),
		"matched_searches": matched,
		"new_matches":      len(recomputed.New),
	})
}

func (a *api) handleCreateSearch(c *gin.Context) {
	recruiterID, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req search.Criteria
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	s, err := search.Create(a.db.WithContext(c.Request.Context()), recruiterID, req)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, newSearchView(*s, 0))
}

// handleListSearches returns the recruiter's searches with the number of
// matches that were unseen until this call, which marks them seen.
func (a *api) handleListSearches(c *gin.Context) {
	recruiterID, ok := idParam(c, "id")
	if !ok {
		return
	}
	ctx := c.Request.Context()
	searches, err := search.List(a.db.WithContext(ctx), recruiterID)
	if err != nil {
		abortWithError(c, err)
		return
	}
	unseen, err := a.engine.MarkSeenForRecruiter(ctx, recruiterID)
	if err != nil {
		abortWithError(c, err)
		return
	}
	out := make([]searchView, 0, len(searches))
	for _, s := range searches {
		out = append(out, newSearchView(s, unseen[s.ID]))
	}
	c.JSON(http.StatusOK, gin.H{"searches": out})
}

func (a *api) handleDeleteSearch(c *gin.Context) {
	recruiterID, ok := idParam(c, "id")
	if !ok {
		return
	}
	searchID, ok := idParam(c, "sid")
	if !ok {
		return
	}
	if err := search.Delete(a.db.WithContext(c.Request.Context()), recruiterID, searchID); err != nil {
		abortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// handleRunSearch lists the candidates matching the criteria right now and
// marks matches of identical saved searches as seen.
func (a *api) handleRunSearch(c *gin.Context) {
	recruiterID, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req search.Criteria
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	ctx := c.Request.Context()
	found, err := a.engine.FindCandidates(ctx, recruiterID, req)
	if err != nil {
		abortWithError(c, err)
		return
	}
	marked, err := a.engine.MarkSeenForExactSearch(ctx, recruiterID, req)
	if err != nil {
		abortWithError(c, err)
		return
	}
	out := make([]candidateView, 0, len(found))
	for _, p := range found {
		out = append(out, newCandidateView(p))
	}
	c.JSON(http.StatusOK, gin.H{"candidates": out, "marked_seen": marked})
}

func (a *api) handleListMatches(c *gin.Context) {
	recruiterID, ok := idParam(c, "id")
	if !ok {
		return
	}
	searchID, ok := idParam(c, "sid")
	if !ok {
		return
	}
	ctx := c.Request.Context()
	if _, err := search.GetOwned(a.db.WithContext(ctx), recruiterID, searchID); err != nil {
		abortWithError(c, err)
		return
	}
	matches, err := a.engine.ListForSearch(ctx, searchID)
	if err != nil {
		abortWithError(c, err)
		return
	}
	out := make([]matchView, 0, len(matches))
	for _, m := range matches {
		out = append(out, newMatchView(m))
	}
	c.JSON(http.StatusOK, gin.H{"matches": out})
}
