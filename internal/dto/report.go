package dto

import (
	"time"

	"github.com/hadirq/ledger-api/internal/service"
	appErrors "github.com/hadirq/ledger-api/pkg/errors"
)

// RecapQuery captures the GET /reports/recap query parameters. Dates are
// ISO yyyy-mm-dd.
type RecapQuery struct {
	From           string `form:"from" binding:"required"`
	To             string `form:"to" binding:"required"`
	Cohort         string `form:"kelas"`
	Name           string `form:"nama"`
	NIS            string `form:"nis"`
	IncludeRecords bool   `form:"records"`
}

// Filter converts the query into a service filter.
func (q RecapQuery) Filter(loc *time.Location) (service.RecapFilter, error) {
	from, err := time.ParseInLocation("2006-01-02", q.From, loc)
	if err != nil {
		return service.RecapFilter{}, appErrors.Clone(appErrors.ErrValidation, "from must be yyyy-mm-dd")
	}
	to, err := time.ParseInLocation("2006-01-02", q.To, loc)
	if err != nil {
		return service.RecapFilter{}, appErrors.Clone(appErrors.ErrValidation, "to must be yyyy-mm-dd")
	}
	return service.RecapFilter{
		From:           from,
		To:             to,
		Cohort:         q.Cohort,
		Name:           q.Name,
		NIS:            q.NIS,
		IncludeRecords: q.IncludeRecords,
	}, nil
}
