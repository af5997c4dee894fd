package interactor

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/veltmarket/wallet-service/internal/domain/models"
	apperrors "github.com/veltmarket/wallet-service/internal/errors"
)

func newTestExportInteractor(repo *fakeRepository) *ExportInteractor {
	i := NewExportInteractor(repo)
	i.now = func() time.Time { return time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC) }
	return i
}

func seedExportData(repo *fakeRepository) {
	repo.now = func() time.Time { return time.Date(2024, 5, 30, 10, 0, 0, 0, time.UTC) }
	repo.Create(context.Background(), &models.Transaction{
		ID:          "t-1",
		ReferenceID: "DEP-1717063200000-aabbccdd",
		UserID:      testUserID,
		Type:        models.TypeDeposit,
		Status:      models.StatusCompleted,
		Amount:      decimal.NewFromInt(100),
		Currency:    "USD",
		FeeAmount:   decimal.NewFromFloat(1.5),
		NetAmount:   decimal.NewFromInt(100),
		Description: `monthly "top-up"`,
	})
	repo.Create(context.Background(), &models.Transaction{
		ID:          "t-2",
		ReferenceID: "WD-1717063300000-deadbeef",
		UserID:      testUserID,
		Type:        models.TypeWithdrawal,
		Status:      models.StatusProcessing,
		Amount:      decimal.NewFromInt(40),
		Currency:    "USD",
		FeeAmount:   decimal.NewFromFloat(0.4),
		NetAmount:   decimal.NewFromFloat(39.6),
	})
}

func TestExportCSV(t *testing.T) {
	repo := newFakeRepository()
	seedExportData(repo)
	i := newTestExportInteractor(repo)

	file, err := i.Export(context.Background(), testUserID, "csv", nil, nil)
	require.NoError(t, err)

	assert.Equal(t, "transactions-20240601.csv", file.Filename)
	assert.Equal(t, "text/csv", file.ContentType)

	lines := strings.Split(string(file.Data), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, `"Reference ID","Type","Status","Amount","Fee","Net Amount","Currency","Description","Created At"`, lines[0])
	assert.Equal(t, `"DEP-1717063200000-aabbccdd","deposit","completed","100.00","1.50","100.00","USD","monthly ""top-up""","2024-05-30T10:00:00Z"`, lines[1])
	assert.Equal(t, `"WD-1717063300000-deadbeef","withdrawal","processing","40.00","0.40","39.60","USD","","2024-05-30T10:00:00Z"`, lines[2])
}

func TestExportEmptyFormatDefaultsToCSV(t *testing.T) {
	repo := newFakeRepository()
	i := newTestExportInteractor(repo)

	file, err := i.Export(context.Background(), testUserID, "", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "text/csv", file.ContentType)
	assert.Equal(t, `"Reference ID","Type","Status","Amount","Fee","Net Amount","Currency","Description","Created At"`, string(file.Data))
}

func TestExportJSON(t *testing.T) {
	repo := newFakeRepository()
	seedExportData(repo)
	i := newTestExportInteractor(repo)

	file, err := i.Export(context.Background(), testUserID, "json", nil, nil)
	require.NoError(t, err)

	assert.Equal(t, "transactions-20240601.json", file.Filename)
	assert.Equal(t, "application/json", file.ContentType)

	var payload struct {
		ExportedAt   string `json:"exportedAt"`
		Count        int    `json:"count"`
		Transactions []struct {
			ReferenceID string `json:"referenceId"`
			Amount      string `json:"amount"`
		} `json:"transactions"`
	}
	require.NoError(t, json.Unmarshal(file.Data, &payload))
	assert.Equal(t, "2024-06-01T12:00:00Z", payload.ExportedAt)
	assert.Equal(t, 2, payload.Count)
	require.Len(t, payload.Transactions, 2)
	assert.Equal(t, "DEP-1717063200000-aabbccdd", payload.Transactions[0].ReferenceID)
	assert.Equal(t, "100.00", payload.Transactions[0].Amount)
}

func TestExportStatement(t *testing.T) {
	repo := newFakeRepository()
	seedExportData(repo)
	i := newTestExportInteractor(repo)

	file, err := i.Export(context.Background(), testUserID, "pdf", nil, nil)
	require.NoError(t, err)

	assert.Equal(t, "transactions-20240601.pdf", file.Filename)
	assert.Equal(t, "text/plain", file.ContentType)

	statement := string(file.Data)
	assert.Contains(t, statement, "TRANSACTION STATEMENT")
	assert.Contains(t, statement, "Total income:  100.00")
	assert.Contains(t, statement, "Total expense: 40.00")
	assert.Contains(t, statement, "Total fees:    1.90")
	assert.Contains(t, statement, "DEP-1717063200000-aabbccdd")
	assert.Contains(t, statement, "WD-1717063300000-deadbeef")
}

func TestExportUnsupportedFormat(t *testing.T) {
	repo := newFakeRepository()
	i := newTestExportInteractor(repo)

	_, err := i.Export(context.Background(), testUserID, "xlsx", nil, nil)
	var badRequest *apperrors.BadRequestError
	require.ErrorAs(t, err, &badRequest)
	assert.Equal(t, "Unsupported export format", badRequest.Message)
}
