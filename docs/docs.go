// Package docs Rent Control Department Dispute API.
//
// Documentation of the Rent Control Department dispute case API.
//
//     Schemes: https
//     BasePath: /
//     Version: 1.0.0
//
//     Consumes:
//     - application/json
//
//     Produces:
//     - application/json
//
//     Security:
//     - basic
//
//    SecurityDefinitions:
//    basic:
//      type: basic
//
// swagger:meta
package docs

import (
	"github.com/rentcontroldept/rcd-api/api/handlers"
	"github.com/rentcontroldept/rcd-api/models"
)

// swagger:route GET /health health healthEndpointID
// Lists the healthchex of the web service api.
// responses:
//   200: healthResponse

// Shows the current health of the api. true means it is alive, false means it is not.
// swagger:response healthResponse
type healthResponseWrapper struct {
	// in:body
	Body models.HealthCheckResponse
}

// swagger:route GET /api/v1/case/{case_id} cases caseByID
// Gets a single dispute case by ID.
// responses:
//   200: caseByIDResponse

// Shows a single case by the given {case_id}
// swagger:response caseByIDResponse
type caseByIDResponseWrapper struct {
	// in:body
	Body models.Case
}

// swagger:route GET /api/v1/hearing/{hearing_id} hearings hearingByID
// Gets a single hearing by ID.
// responses:
//   200: hearingByIDResponse

// Shows a single hearing by the given {hearing_id}
// swagger:response hearingByIDResponse
type hearingByIDResponseWrapper struct {
	// in:body
	Body models.Hearing
}

// swagger:route GET /api/v1/statistics statistics caseStatistics
// Gets the caseload statistics for the caller's scope.
// responses:
//   200: caseStatisticsResponse

// Shows the caseload broken down by status and priority
// swagger:response caseStatisticsResponse
type caseStatisticsResponseWrapper struct {
	// in:body
	Body handlers.CaseStatistics
}
