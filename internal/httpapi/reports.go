package httpapi

import (
	"errors"
	"net/http"
	"time"

	"cms-portal/internal/cms"
	"cms-portal/internal/reporting"

	"github.com/gin-gonic/gin"
)

const (
	defaultReportWindow = 24 * time.Hour
	// contentReportPages bounds how much of the catalogue one report walks.
	contentReportPages = 20
	contentReportLimit = 100
)

// AdminActivityReport summarises the audit trail. from/to accept RFC 3339
// or YYYY-MM-DD; the default is the last 24 hours.
func (h Handlers) AdminActivityReport(c *gin.Context) {
	to := time.Now().UTC()
	from := to.Add(-defaultReportWindow)
	var err error
	if v := c.Query("to"); v != "" {
		if to, err = parseReportTime(v); err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid to"})
			return
		}
	}
	if v := c.Query("from"); v != "" {
		if from, err = parseReportTime(v); err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid from"})
			return
		}
	}

	out, err := h.Reports.ActivitySummary(c.Request.Context(), reporting.ActivityRequest{
		Range:    reporting.TimeRange{From: from, To: to},
		Username: c.Query("username"),
	})
	if errors.Is(err, reporting.ErrInvalidRequest) {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "from must be before to"})
		return
	}
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// AdminContentReport walks the article listing and aggregates it.
func (h Handlers) AdminContentReport(c *gin.Context) {
	ctx := c.Request.Context()
	up := h.upstream(c)
	params := cms.ListArticlesParams{UserID: c.Query("userId"), Category: c.Query("category"), Limit: contentReportLimit}

	var all []cms.Article
	for page := 1; page <= contentReportPages; page++ {
		params.Page = page
		res, err := up.Articles.List(ctx, params)
		if err != nil {
			h.fail(c, err)
			return
		}
		all = append(all, res.Data...)
		if len(res.Data) < contentReportLimit || len(all) >= total(res) {
			break
		}
	}
	c.JSON(http.StatusOK, reporting.SummarizeContent(all))
}

func parseReportTime(v string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t, nil
	}
	return time.Parse(time.DateOnly, v)
}
