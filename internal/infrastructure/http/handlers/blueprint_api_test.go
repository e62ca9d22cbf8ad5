package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alchemorsel/nutriplan/internal/domain/blueprint"
	"github.com/alchemorsel/nutriplan/internal/infrastructure/http/middleware"
	"github.com/alchemorsel/nutriplan/internal/ports/inbound"
	apperrors "github.com/alchemorsel/nutriplan/pkg/errors"
	"github.com/alchemorsel/nutriplan/test/testutils"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap/zaptest"
)

var monday = time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC)

// BlueprintHandlersTestSuite exercises the handlers behind a chi router
type BlueprintHandlersTestSuite struct {
	suite.Suite
	service  *testutils.MockBlueprintService
	handlers *BlueprintHandlers
	router   chi.Router
}

func (suite *BlueprintHandlersTestSuite) SetupTest() {
	suite.service = new(testutils.MockBlueprintService)
	suite.handlers = NewBlueprintHandlers(suite.service, zaptest.NewLogger(suite.T()))
	suite.handlers.now = func() time.Time { return monday.Add(50 * time.Hour) }

	r := chi.NewRouter()
	r.Route("/api/v1/blueprints", func(r chi.Router) {
		r.Post("/", suite.handlers.Generate)
		r.Get("/", suite.handlers.ListPlans)
		r.Get("/{week}", suite.handlers.GetPlan)
		r.Delete("/{week}", suite.handlers.DeletePlan)
	})
	suite.router = r
}

func (suite *BlueprintHandlersTestSuite) TearDownTest() {
	suite.service.AssertExpectations(suite.T())
}

func (suite *BlueprintHandlersTestSuite) do(method, target, body string, authenticated bool) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	if authenticated {
		req = req.WithContext(middleware.WithUser(req.Context(), "user-1", "premium"))
	}
	rec := httptest.NewRecorder()
	suite.router.ServeHTTP(rec, req)
	return rec
}

func (suite *BlueprintHandlersTestSuite) errorCode(rec *httptest.ResponseRecorder) apperrors.ErrorCode {
	var body apperrors.ErrorResponse
	require.NoError(suite.T(), json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Error.Code
}

func (suite *BlueprintHandlersTestSuite) TestGenerate_ReturnsDocument() {
	plan := testutils.NewPlanBuilder(1).WithWeek(monday).Build()
	suite.service.On("Generate", mock.Anything, inbound.GenerateCommand{
		UserID:      "user-1",
		WeekStart:   monday,
		CalorieGoal: 2200,
	}).Return(plan, nil)

	rec := suite.do(http.MethodPost, "/api/v1/blueprints", `{"week_start":"2026-10-19","calorie_goal":2200}`, true)

	suite.Equal(http.StatusCreated, rec.Code)
	var doc map[string]interface{}
	suite.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &doc))
	suite.Equal("2026-10-19", doc["weekStartDate"])
	suite.Equal(float64(4), doc["householdSize"])
	suite.Len(doc["meals"], blueprint.DaysPerPlan)
	suite.Contains(doc, "shoppingList")
}

func (suite *BlueprintHandlersTestSuite) TestGenerate_DefaultsToCurrentWeek() {
	plan := testutils.NewPlanBuilder(2).WithWeek(monday).Build()
	suite.service.On("Generate", mock.Anything, mock.MatchedBy(func(cmd inbound.GenerateCommand) bool {
		return cmd.WeekStart.Equal(monday) && cmd.CalorieGoal == 0
	})).Return(plan, nil)

	rec := suite.do(http.MethodPost, "/api/v1/blueprints", "", true)
	suite.Equal(http.StatusCreated, rec.Code)
}

func (suite *BlueprintHandlersTestSuite) TestGenerate_RejectsNonMonday() {
	rec := suite.do(http.MethodPost, "/api/v1/blueprints", `{"week_start":"2026-10-21"}`, true)
	suite.Equal(http.StatusBadRequest, rec.Code)
	suite.Equal(apperrors.CodeValidationFailed, suite.errorCode(rec))
}

func (suite *BlueprintHandlersTestSuite) TestGenerate_RejectsUnknownFields() {
	rec := suite.do(http.MethodPost, "/api/v1/blueprints", `{"weekStart":"2026-10-19"}`, true)
	suite.Equal(http.StatusBadRequest, rec.Code)
	suite.Equal(apperrors.CodeBadRequest, suite.errorCode(rec))
}

func (suite *BlueprintHandlersTestSuite) TestGenerate_MapsServiceErrors() {
	tests := []struct {
		err    error
		status int
		code   apperrors.ErrorCode
	}{
		{apperrors.NewProfileNotFoundError("user-1"), http.StatusNotFound, apperrors.CodeProfileNotFound},
		{apperrors.NewRegenerationInProgressError("user-1", "2026-10-19"), http.StatusConflict, apperrors.CodeRegenerationInUse},
		{apperrors.NewGenerationExhaustedError(apperrors.CodeResourceExhausted, 6, errors.New("429")), http.StatusTooManyRequests, apperrors.CodeResourceExhausted},
		{errors.New("boom"), http.StatusInternalServerError, apperrors.CodeInternal},
	}

	for _, tt := range tests {
		suite.SetupTest()
		suite.service.On("Generate", mock.Anything, mock.Anything).Return(nil, tt.err).Once()

		rec := suite.do(http.MethodPost, "/api/v1/blueprints", `{"week_start":"2026-10-19"}`, true)

		suite.Equal(tt.status, rec.Code, tt.err.Error())
		suite.Equal(tt.code, suite.errorCode(rec))
	}
}

func (suite *BlueprintHandlersTestSuite) TestRequiresUser() {
	rec := suite.do(http.MethodGet, "/api/v1/blueprints", "", false)
	suite.Equal(http.StatusUnauthorized, rec.Code)
}

func (suite *BlueprintHandlersTestSuite) TestGetPlan() {
	plan := testutils.NewPlanBuilder(3).WithWeek(monday).Build()
	suite.service.On("GetPlan", mock.Anything, "user-1", monday).Return(plan, nil)

	rec := suite.do(http.MethodGet, "/api/v1/blueprints/2026-10-19", "", true)

	suite.Equal(http.StatusOK, rec.Code)
	var doc blueprint.Document
	suite.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &doc))
	suite.Equal(plan.ID.String(), doc.ID)
}

func (suite *BlueprintHandlersTestSuite) TestGetPlan_NotFound() {
	suite.service.On("GetPlan", mock.Anything, "user-1", monday).
		Return(nil, apperrors.NewPlanNotFoundError("user-1", "2026-10-19"))

	rec := suite.do(http.MethodGet, "/api/v1/blueprints/2026-10-19", "", true)

	suite.Equal(http.StatusNotFound, rec.Code)
	suite.Equal(apperrors.CodePlanNotFound, suite.errorCode(rec))
}

func (suite *BlueprintHandlersTestSuite) TestGetPlan_BadWeek() {
	rec := suite.do(http.MethodGet, "/api/v1/blueprints/next-week", "", true)
	suite.Equal(http.StatusBadRequest, rec.Code)
}

func (suite *BlueprintHandlersTestSuite) TestDeletePlan() {
	suite.service.On("DeletePlan", mock.Anything, "user-1", monday).Return(nil)

	rec := suite.do(http.MethodDelete, "/api/v1/blueprints/2026-10-19", "", true)

	suite.Equal(http.StatusNoContent, rec.Code)
	suite.Empty(rec.Body.String())
}

func (suite *BlueprintHandlersTestSuite) TestListPlans() {
	summaries := []blueprint.Summary{
		{ID: "a", WeekStartDate: "2026-10-19", DailyCalories: 2000, Tier: blueprint.TierEconomy},
		{ID: "b", WeekStartDate: "2026-10-12", DailyCalories: 2100, Tier: blueprint.TierPremium},
	}
	suite.service.On("ListPlans", mock.Anything, "user-1", 2).Return(summaries, nil)

	rec := suite.do(http.MethodGet, "/api/v1/blueprints?limit=2", "", true)

	suite.Equal(http.StatusOK, rec.Code)
	var body ListResponse
	suite.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &body))
	suite.Equal(2, body.Count)
	suite.Equal("2026-10-19", body.Plans[0].WeekStartDate)
}

func (suite *BlueprintHandlersTestSuite) TestListPlans_InvalidLimit() {
	rec := suite.do(http.MethodGet, "/api/v1/blueprints?limit=-3", "", true)
	suite.Equal(http.StatusBadRequest, rec.Code)
}

// TestBlueprintHandlersTestSuite runs the handler test suite
func TestBlueprintHandlersTestSuite(t *testing.T) {
	suite.Run(t, new(BlueprintHandlersTestSuite))
}

func TestGenerateRequest_JSONShape(t *testing.T) {
	raw, err := json.Marshal(GenerateRequest{WeekStart: "2026-10-19"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"week_start":"2026-10-19"}`, string(raw))
}
