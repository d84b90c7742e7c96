package services

import (
	"bytes"
	"context"
	"testing"
	"time"

	"sacco-returns/internal/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestComplianceWorkbook(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alpha := f.createSacco(t, "REG-001", "Alpha")
	f.createSacco(t, "REG-002", "Beta")
	clerk := f.staff(t, "clerk", domain.RoleDataEntryOfficer, alpha.ID)

	f.filedReturn(t, clerk, alpha.ID, ym(2024, time.April))
	_, err := f.returns.CreateDraft(ctx, clerk, alpha.ID, ym(2024, time.May))
	require.NoError(t, err)

	data, err := f.reports.ComplianceWorkbook(ctx, f.analyst)
	require.NoError(t, err)

	book, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer book.Close()

	rows, err := book.GetRows(ComplianceSheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, "Registration No", rows[0][0])
	assert.Equal(t, "Latest Status", rows[0][7])

	assert.Equal(t, []string{"REG-001", "Alpha", "Nairobi", "Active", "1", "33.33", "2024-05", "Draft"}, rows[1])
	require.GreaterOrEqual(t, len(rows[2]), 6)
	assert.Equal(t, []string{"REG-002", "Beta", "Nairobi", "Active", "0", "0"}, rows[2][:6])

	_, err = f.reports.ComplianceWorkbook(ctx, clerk)
	assert.ErrorIs(t, err, domain.ErrForbidden)
}
