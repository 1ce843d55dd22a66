package form

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/artpar/shopdesk/internal/core/auth"
	"github.com/artpar/shopdesk/internal/core/domain"
	"github.com/artpar/shopdesk/internal/core/rules"
)

var (
	manager = auth.Actor{UserID: "m-1", Role: domain.RoleManager, Authenticated: true}
	clerk   = auth.Actor{UserID: "s-1", Role: domain.RoleStockClerk, Authenticated: true}
)

func open(t *testing.T, kind domain.RecordKind, mode domain.FormMode, existing domain.Record, actor auth.Actor, opts ...Option) *Session {
	t.Helper()
	s, err := Open(kind, mode, existing, actor, opts...)
	require.NoError(t, err)
	return s
}

func change(t *testing.T, s *Session, fields map[string]string) {
	t.Helper()
	for f, v := range fields {
		require.NoError(t, s.Change(f, v))
	}
}

func storedProduct() domain.Record {
	return domain.Record{
		domain.FieldID:               "p-1",
		domain.FieldName:             "Café Pilão 500g",
		domain.FieldPrice:            "18.9",
		domain.FieldPromotionalPrice: "15.9",
		domain.FieldType:             "Bebidas",
		domain.FieldDescription:      "Café torrado e moído",
		domain.FieldExpirationDate:   "2025-12-01",
		domain.FieldStock:            "40",
	}
}

// =============================================================================
// Scenario Tests
// =============================================================================

func TestScenarioA_NegativePriceRejected(t *testing.T) {
	s := open(t, domain.KindProduct, domain.ModeAdd, nil, clerk)
	require.NoError(t, s.Change(domain.FieldPrice, "-5"))

	rec, errs := s.Submit()
	assert.Nil(t, rec)
	assert.Equal(t, "price must be greater than 0", errs[domain.FieldPrice])
	assert.Equal(t, StateRejected, s.State())
}

func TestScenarioB_WeakThenStrongPassword(t *testing.T) {
	s := open(t, domain.KindUser, domain.ModeAdd, nil, manager)
	change(t, s, map[string]string{
		domain.FieldName:  "Bruno Lima",
		domain.FieldEmail: "bruno@loja.com",
		domain.FieldCPF:   "123.456.789-09",
		domain.FieldRole:  "Vendedor",
	})
	require.NoError(t, s.Change(domain.FieldPassword, "abc"))

	_, errs := s.Submit()
	assert.True(t, errs.Has(domain.FieldPassword))
	assert.Len(t, errs, 1)

	require.NoError(t, s.Change(domain.FieldPassword, "Abcdef1!"))
	assert.False(t, s.Errors().Has(domain.FieldPassword))

	rec, errs := s.Submit()
	assert.Empty(t, errs)
	require.NotNil(t, rec)
	assert.Equal(t, "Abcdef1!", rec[domain.FieldPassword])
	assert.Equal(t, "12345678909", rec[domain.FieldCPF])
	assert.Equal(t, "salesperson", rec[domain.FieldRole])
	assert.Equal(t, StateAccepted, s.State())
}

func TestScenarioC_EditWithBlankPassword(t *testing.T) {
	existing := domain.Record{
		domain.FieldName:     "Ana",
		domain.FieldEmail:    "ana@x.com",
		domain.FieldCPF:      "529.982.247-25",
		domain.FieldRole:     "Salesperson",
		domain.FieldPassword: "",
	}
	s := open(t, domain.KindUser, domain.ModeEdit, existing, clerk)

	rec, errs := s.Submit()
	assert.Empty(t, errs)
	require.NotNil(t, rec)
	assert.False(t, rec.Has(domain.FieldPassword))
	assert.Equal(t, "Ana", rec[domain.FieldName])
}

func TestScenarioD_ViewIsReadOnly(t *testing.T) {
	existing := domain.Record{
		domain.FieldID:            "c-1",
		domain.FieldName:          "Carla Dias",
		domain.FieldEmail:         "carla@mail.com",
		domain.FieldCPF:           "11144477735",
		domain.FieldAge:           "34",
		domain.FieldCustomerSince: "2022-06-01",
	}
	s := open(t, domain.KindCustomer, domain.ModeView, existing, manager)

	assert.ErrorIs(t, s.Change(domain.FieldName, "Outra"), ErrReadOnly)
	assert.False(t, s.Editable(domain.FieldName))

	rec, errs := s.Submit()
	assert.Empty(t, errs)
	assert.Equal(t, existing, rec)

	rec, errs = s.Submit()
	assert.Empty(t, errs)
	assert.Equal(t, existing, rec)
}

func TestSubmit_ViewReturnsRecordAsGiven(t *testing.T) {
	existing := domain.Record{
		domain.FieldID:    "c-2",
		domain.FieldName:  " Bruno Alves ",
		domain.FieldCPF:   "111.444.777-35",
		domain.FieldPhone: "(11) 3456-7890",
		"notes":           "cliente antigo",
	}
	s := open(t, domain.KindCustomer, domain.ModeView, existing, manager)

	rec, errs := s.Submit()
	assert.Empty(t, errs)
	assert.Equal(t, existing, rec)
	assert.Equal(t, "111.444.777-35", s.Display()[domain.FieldCPF])

	rec[domain.FieldName] = "changed"
	again, _ := s.Submit()
	assert.Equal(t, " Bruno Alves ", again[domain.FieldName])
}

// =============================================================================
// Open Tests
// =============================================================================

func TestOpen_InvalidKindOrMode(t *testing.T) {
	_, err := Open(domain.RecordKind("order"), domain.ModeAdd, nil, manager)
	assert.ErrorIs(t, err, domain.ErrUnknownKind)

	_, err = Open(domain.KindProduct, domain.FormMode("delete"), nil, manager)
	assert.ErrorIs(t, err, domain.ErrUnknownMode)
}

func TestOpen_SeedsNormalizedCopy(t *testing.T) {
	existing := domain.Record{
		domain.FieldID:       "u-1",
		domain.FieldName:     "Ana",
		domain.FieldCPF:      "529.982.247-25",
		domain.FieldPassword: "$2a$10$hash",
		"lastLogin":          "yesterday",
	}
	s := open(t, domain.KindUser, domain.ModeEdit, existing, manager)

	values := s.Values()
	assert.Equal(t, "52998224725", values[domain.FieldCPF])
	assert.Equal(t, "", values[domain.FieldPassword])
	assert.False(t, values.Has("lastLogin"))
	assert.Equal(t, "u-1", s.RecordID())
	assert.Equal(t, "52998224725", s.Original()[domain.FieldCPF])

	existing[domain.FieldName] = "changed"
	assert.Equal(t, "Ana", s.Values()[domain.FieldName])
	assert.Equal(t, StateSeeded, s.State())
}

func TestOpen_AddSeedsEveryFieldBlank(t *testing.T) {
	s := open(t, domain.KindCustomer, domain.ModeAdd, nil, manager)
	values := s.Values()
	for _, f := range domain.FieldsFor(domain.KindCustomer) {
		assert.True(t, values.Has(f), f)
	}
	assert.Empty(t, s.RecordID())
}

// =============================================================================
// Change Tests
// =============================================================================

func TestChange_NormalizesAndDisplaysMasked(t *testing.T) {
	s := open(t, domain.KindCustomer, domain.ModeAdd, nil, manager)
	change(t, s, map[string]string{
		domain.FieldCPF:   "11144477735",
		domain.FieldPhone: "(11) 98765-4321",
	})

	assert.Equal(t, "11144477735", s.Values()[domain.FieldCPF])
	assert.Equal(t, "11987654321", s.Values()[domain.FieldPhone])
	assert.Equal(t, "111.444.777-35", s.Display()[domain.FieldCPF])
	assert.Equal(t, "(11) 98765-4321", s.Display()[domain.FieldPhone])
	assert.Equal(t, StateEditing, s.State())
}

func TestChange_UnknownField(t *testing.T) {
	s := open(t, domain.KindProduct, domain.ModeAdd, nil, manager)

	assert.ErrorIs(t, s.Change("color", "red"), ErrUnknownField)
	assert.ErrorIs(t, s.Change(domain.FieldID, "p-9"), ErrUnknownField)
	assert.ErrorIs(t, s.Change(domain.FieldPassword, "x"), ErrUnknownField)
}

func TestChange_ClearsOnlyThatFieldsError(t *testing.T) {
	s := open(t, domain.KindProduct, domain.ModeAdd, nil, manager)
	_, errs := s.Submit()
	require.True(t, errs.Has(domain.FieldName))
	require.True(t, errs.Has(domain.FieldPrice))

	require.NoError(t, s.Change(domain.FieldPrice, "abc"))

	assert.False(t, s.Errors().Has(domain.FieldPrice))
	assert.True(t, s.Errors().Has(domain.FieldName))
	assert.Equal(t, StateEditing, s.State())
}

func TestChange_GatedFieldIsSilentNoOp(t *testing.T) {
	s := open(t, domain.KindProduct, domain.ModeEdit, storedProduct(), clerk)

	assert.False(t, s.Editable(domain.FieldPromotionalPrice))
	assert.True(t, s.Editable(domain.FieldPrice))
	require.NoError(t, s.Change(domain.FieldPromotionalPrice, "1.00"))
	assert.Equal(t, "15.9", s.Values()[domain.FieldPromotionalPrice])
}

func TestChange_AdminRoleRequiresPrivilege(t *testing.T) {
	s := open(t, domain.KindUser, domain.ModeAdd, nil, clerk)
	require.NoError(t, s.Change(domain.FieldRole, "admin"))
	assert.Equal(t, "", s.Values()[domain.FieldRole])

	s = open(t, domain.KindUser, domain.ModeAdd, nil, manager)
	require.NoError(t, s.Change(domain.FieldRole, "Administrador"))
	assert.Equal(t, "admin", s.Values()[domain.FieldRole])
}

func TestChange_AfterAcceptOrClose(t *testing.T) {
	s := open(t, domain.KindUser, domain.ModeEdit, domain.Record{
		domain.FieldName:  "Ana",
		domain.FieldEmail: "ana@x.com",
		domain.FieldCPF:   "52998224725",
		domain.FieldRole:  "cashier",
	}, manager)
	_, errs := s.Submit()
	require.Empty(t, errs)

	assert.ErrorIs(t, s.Change(domain.FieldName, "Bia"), ErrSessionClosed)

	s.Close()
	assert.Equal(t, StateClosed, s.State())
	assert.ErrorIs(t, s.Change(domain.FieldName, "Bia"), ErrSessionClosed)

	rec, errs := s.Submit()
	assert.Nil(t, rec)
	assert.Nil(t, errs)
}

// =============================================================================
// Submit Tests
// =============================================================================

func TestSubmit_StripsPromotionForUnprivilegedAdd(t *testing.T) {
	s := open(t, domain.KindProduct, domain.ModeAdd, nil, clerk)
	change(t, s, map[string]string{
		domain.FieldName:           "  Feijão Carioca 1kg ",
		domain.FieldPrice:          "8,49",
		domain.FieldType:           "Grãos",
		domain.FieldDescription:    "Feijão tipo 1",
		domain.FieldExpirationDate: "2025-08-10",
	})

	rec, errs := s.Submit()
	require.Empty(t, errs)
	assert.Equal(t, "", rec[domain.FieldPromotionalPrice])
	assert.Equal(t, "8.49", rec[domain.FieldPrice])
	assert.Equal(t, "Feijão Carioca 1kg", rec[domain.FieldName])
}

func TestSubmit_EditKeepsStoredPromotionForClerk(t *testing.T) {
	s := open(t, domain.KindProduct, domain.ModeEdit, storedProduct(), clerk)
	require.NoError(t, s.Change(domain.FieldStock, "35"))

	rec, errs := s.Submit()
	require.Empty(t, errs)
	assert.Equal(t, "15.9", rec[domain.FieldPromotionalPrice])
	assert.Equal(t, "35", rec[domain.FieldStock])
	assert.Equal(t, "p-1", rec[domain.FieldID])
}

func TestSubmit_ClerkCannotPriceBelowStoredPromotion(t *testing.T) {
	s := open(t, domain.KindProduct, domain.ModeEdit, storedProduct(), clerk)
	require.NoError(t, s.Change(domain.FieldPrice, "10"))

	rec, errs := s.Submit()
	assert.Nil(t, rec)
	assert.Equal(t, "price must be greater than the promotional price (15.9)", errs[domain.FieldPrice])
	assert.Equal(t, StateRejected, s.State())

	require.NoError(t, s.Change(domain.FieldPrice, "16"))
	rec, errs = s.Submit()
	require.Empty(t, errs)
	assert.Equal(t, "16", rec[domain.FieldPrice])
	assert.Equal(t, "15.9", rec[domain.FieldPromotionalPrice])
}

func TestSubmit_NonFinitePriceRejected(t *testing.T) {
	for _, v := range []string{"NaN", "Inf", "-Infinity"} {
		t.Run(v, func(t *testing.T) {
			existing := storedProduct()
			delete(existing, domain.FieldID)
			s := open(t, domain.KindProduct, domain.ModeAdd, existing, manager)
			change(t, s, map[string]string{
				domain.FieldPrice:            v,
				domain.FieldPromotionalPrice: "NaN",
			})

			rec, errs := s.Submit()
			assert.Nil(t, rec)
			assert.Equal(t, "price must be a number", errs[domain.FieldPrice])
			assert.Equal(t, "promotionalPrice must be a number", errs[domain.FieldPromotionalPrice])
		})
	}
}

func TestOpen_AddDropsPrefilledValuesActorCannotSet(t *testing.T) {
	existing := storedProduct()
	delete(existing, domain.FieldID)
	s := open(t, domain.KindProduct, domain.ModeAdd, existing, clerk)
	assert.Equal(t, "", s.Values()[domain.FieldPromotionalPrice])
	assert.Equal(t, "18.9", s.Values()[domain.FieldPrice])

	rec, errs := s.Submit()
	require.Empty(t, errs)
	assert.Equal(t, "", rec[domain.FieldPromotionalPrice])

	s = open(t, domain.KindProduct, domain.ModeAdd, existing, manager)
	assert.Equal(t, "15.9", s.Values()[domain.FieldPromotionalPrice])
}

func TestOpen_AddDropsPrefilledAdminRole(t *testing.T) {
	existing := domain.Record{
		domain.FieldName:  "Rita Lima",
		domain.FieldEmail: "rita@loja.com",
		domain.FieldCPF:   "529.982.247-25",
		domain.FieldRole:  "admin",
	}
	s := open(t, domain.KindUser, domain.ModeAdd, existing, clerk)
	assert.Equal(t, "", s.Values()[domain.FieldRole])
	require.NoError(t, s.Change(domain.FieldPassword, "Segura#2024"))

	rec, errs := s.Submit()
	assert.Nil(t, rec)
	assert.Equal(t, domain.FieldErrors{domain.FieldRole: "role is required"}, errs)

	require.NoError(t, s.Change(domain.FieldRole, "salesperson"))
	rec, errs = s.Submit()
	require.Empty(t, errs)
	assert.Equal(t, "salesperson", rec[domain.FieldRole])
}

func TestSubmit_PromotionWarningPolicy(t *testing.T) {
	s := open(t, domain.KindProduct, domain.ModeEdit, storedProduct(), manager,
		WithPolicy(rules.Policy{PromotionBelowBaseIsBlocking: false}))
	require.NoError(t, s.Change(domain.FieldPromotionalPrice, "20"))

	rec, errs := s.Submit()
	assert.Empty(t, errs)
	assert.Equal(t, "20", rec[domain.FieldPromotionalPrice])
	assert.True(t, s.Warnings().Has(domain.FieldPromotionalPrice))
}

func TestSubmit_PromotionBlockingByDefault(t *testing.T) {
	s := open(t, domain.KindProduct, domain.ModeEdit, storedProduct(), manager)
	require.NoError(t, s.Change(domain.FieldPromotionalPrice, "20"))

	rec, errs := s.Submit()
	assert.Nil(t, rec)
	assert.True(t, errs.Has(domain.FieldPromotionalPrice))
}

func TestSubmit_ReturnsIndependentCopy(t *testing.T) {
	s := open(t, domain.KindProduct, domain.ModeEdit, storedProduct(), manager)
	rec, errs := s.Submit()
	require.Empty(t, errs)

	rec[domain.FieldName] = "mutated"
	again, _ := s.Submit()
	assert.Equal(t, "Café Pilão 500g", again[domain.FieldName])
}

func TestSubmit_RejectedErrorsAreCopies(t *testing.T) {
	s := open(t, domain.KindProduct, domain.ModeAdd, nil, manager)
	_, errs := s.Submit()
	errs.Clear(domain.FieldName)

	assert.True(t, s.Errors().Has(domain.FieldName))
}

// =============================================================================
// Query Tests
// =============================================================================

func TestPasswordStrength_Live(t *testing.T) {
	s := open(t, domain.KindUser, domain.ModeAdd, nil, manager)
	assert.False(t, s.PasswordStrength().IsValid)

	require.NoError(t, s.Change(domain.FieldPassword, "Abcdef1!"))
	assert.True(t, s.PasswordStrength().IsValid)
	assert.NotContains(t, s.Display(), domain.FieldPassword)
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "rejected", StateRejected.String())
	assert.Equal(t, "unknown", State(42).String())
	assert.True(t, StateClosed.IsTerminal())
	assert.False(t, StateRejected.IsTerminal())
}
