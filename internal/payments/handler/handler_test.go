package handler

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks Service

import (
	"io"
	"log/slog"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"lifeline/internal/payments/handler/mocks"
	"lifeline/internal/payments/models"
	"lifeline/internal/payments/service"
	"lifeline/pkg/domain"
	dErrors "lifeline/pkg/domain-errors"
	"lifeline/pkg/testutil"
)

func setup(t *testing.T) (*mocks.MockService, chi.Router) {
	t.Helper()
	ctrl := gomock.NewController(t)
	svc := mocks.NewMockService(ctrl)
	r := chi.NewRouter()
	New(svc, slog.New(slog.NewTextHandler(io.Discard, nil))).Register(r)
	return svc, r
}

func TestCreateIntent(t *testing.T) {
	testutil.Given(t, "a valid amount", func(t *testing.T) {
		svc, r := setup(t)
		svc.EXPECT().CreateIntent(gomock.Any(), service.IntentRequest{Amount: 1500}).
			Return(&models.Intent{ID: "pi_1", ClientSecret: "pi_1_secret_x"}, nil)

		testutil.When(t, "the intent is requested", func(t *testing.T) {
			rr := testutil.DoRequest(r, testutil.NewJSONRequest(t, http.MethodPost, "/create-payment-intent", map[string]any{"amount": 1500}))

			testutil.Then(t, "the client secret is returned", func(t *testing.T) {
				testutil.AssertStatusOK(t, rr)
				resp := testutil.UnmarshalResponse[intentResponse](t, rr)
				assert.Equal(t, "pi_1", resp.IntentID)
				assert.Equal(t, "pi_1_secret_x", resp.ClientSecret)
			})
		})
	})

	testutil.Given(t, "a negative amount", func(t *testing.T) {
		_, r := setup(t)
		rr := testutil.DoRequest(r, testutil.NewJSONRequest(t, http.MethodPost, "/create-payment-intent", map[string]any{"amount": -5}))
		testutil.Then(t, "the request is rejected before the service", func(t *testing.T) {
			testutil.AssertStatusAndError(t, rr, http.StatusBadRequest, "validation_error")
		})
	})

	testutil.Given(t, "an unconfigured provider", func(t *testing.T) {
		svc, r := setup(t)
		svc.EXPECT().CreateIntent(gomock.Any(), gomock.Any()).
			Return(nil, dErrors.New(dErrors.CodeUpstreamFailure, "payment provider is not configured"))
		rr := testutil.DoRequest(r, testutil.NewJSONRequest(t, http.MethodPost, "/create-payment-intent", map[string]any{"amount": 5}))
		testutil.Then(t, "the failure maps to bad gateway", func(t *testing.T) {
			assert.Equal(t, http.StatusBadGateway, rr.Code)
		})
	})
}

func TestRecord(t *testing.T) {
	body := map[string]any{"intent_id": "pi_1", "amount": 1500}

	t.Run("first record is created", func(t *testing.T) {
		svc, r := setup(t)
		svc.EXPECT().Record(gomock.Any(), service.RecordRequest{IntentID: "pi_1", Amount: 1500}).
			Return(&models.Payment{IntentID: "pi_1", Amount: 1500}, true, nil)

		rr := testutil.DoRequest(r, testutil.NewJSONRequest(t, http.MethodPost, "/payments", body))
		testutil.AssertStatus(t, rr, http.StatusCreated)
	})

	t.Run("replay returns the existing record", func(t *testing.T) {
		svc, r := setup(t)
		svc.EXPECT().Record(gomock.Any(), gomock.Any()).
			Return(&models.Payment{IntentID: "pi_1", Amount: 1500}, false, nil)

		rr := testutil.DoRequest(r, testutil.NewJSONRequest(t, http.MethodPost, "/payments", body))
		testutil.AssertStatusOK(t, rr)
		resp := testutil.UnmarshalResponse[recordResponse](t, rr)
		assert.False(t, resp.Created)
		require.NotNil(t, resp.Payment)
		assert.Equal(t, "pi_1", resp.Payment.IntentID)
	})

	t.Run("missing intent id", func(t *testing.T) {
		_, r := setup(t)
		rr := testutil.DoRequest(r, testutil.NewJSONRequest(t, http.MethodPost, "/payments", map[string]any{"amount": 10}))
		testutil.AssertStatusAndError(t, rr, http.StatusBadRequest, "validation_error")
	})

	t.Run("forbidden", func(t *testing.T) {
		svc, r := setup(t)
		svc.EXPECT().Record(gomock.Any(), gomock.Any()).
			Return(nil, false, dErrors.New(dErrors.CodeForbidden, "access denied"))

		rr := testutil.DoRequest(r, testutil.NewJSONRequest(t, http.MethodPost, "/payments", body))
		testutil.AssertStatus(t, rr, http.StatusForbidden)
	})
}

func TestListings(t *testing.T) {
	svc, r := setup(t)
	svc.EXPECT().List(gomock.Any(), domain.Page{Number: 3, Size: 5}).Return([]*models.Payment{{IntentID: "a"}}, nil)
	svc.EXPECT().ListMine(gomock.Any(), domain.Page{Number: 1, Size: domain.DefaultPageSize}).Return(nil, nil)

	rr := testutil.DoRequest(r, testutil.NewRequest(t, http.MethodGet, "/payments?page=3&size=5"))
	testutil.AssertStatusOK(t, rr)
	resp := testutil.UnmarshalResponse[listResponse](t, rr)
	assert.Len(t, resp.Payments, 1)
	assert.Equal(t, 3, resp.Page)

	rr = testutil.DoRequest(r, testutil.NewRequest(t, http.MethodGet, "/my-payments"))
	testutil.AssertStatusOK(t, rr)
}
