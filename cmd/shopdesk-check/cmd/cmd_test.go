package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/artpar/shopdesk/internal/core/auth"
	"github.com/artpar/shopdesk/internal/core/domain"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

// =============================================================================
// validate
// =============================================================================

func TestValidate_AcceptedProduct(t *testing.T) {
	path := writeFile(t, "product.yaml", `
name: " Feijão Carioca 1kg "
price: "8,49"
type: Mercearia
description: Feijão tipo 1
expirationDate: "2027-06-30"
stock: "80"
`)

	out, err := execute(t, "validate", "--kind", "product", path)
	require.NoError(t, err, out)

	assert.Contains(t, out, "name: Feijão Carioca 1kg")
	assert.Contains(t, out, `price: "8.49"`)
	assert.NotContains(t, out, "error:")
}

func TestValidate_RejectedUser(t *testing.T) {
	path := writeFile(t, "user.json", `{"name": "Rita", "email": "rita@", "cpf": "111.111.111-11", "role": "manager", "password": "fraca"}`)

	out, err := execute(t, "validate", "--kind", "user", path)
	assert.ErrorIs(t, err, errCheckFailed)

	assert.Contains(t, out, "error: email:")
	assert.Contains(t, out, "error: cpf: cpf is invalid")
	assert.Contains(t, out, "error: password: password is too weak")
}

func TestValidate_CashierPromotionIgnored(t *testing.T) {
	path := writeFile(t, "product.yaml", `
name: Sabão em pó
price: "15.90"
promotionalPrice: "12.00"
type: Limpeza
description: Caixa 1kg
expirationDate: "2027-01-31"
`)

	out, err := execute(t, "validate", "--kind", "product", "--role", "cashier", path)
	require.NoError(t, err, out)

	assert.Contains(t, out, "ignored: promotionalPrice")
	assert.NotContains(t, out, "promotionalPrice: \"12.00\"")
}

func TestValidate_AddPrefilledPromotionDroppedForCashier(t *testing.T) {
	existing := writeFile(t, "draft.yaml", `
name: Sabão em pó
price: "15.90"
promotionalPrice: "9.90"
type: Limpeza
description: Caixa 1kg
expirationDate: "2027-01-31"
`)
	change := writeFile(t, "change.yaml", `stock: "12"`)

	out, err := execute(t, "validate", "--kind", "product", "--role", "cashier", "--existing", existing, change)
	require.NoError(t, err, out)

	assert.NotContains(t, out, "9.90")
	assert.Contains(t, out, `stock: "12"`)
}

func TestValidate_PromotionWarnPolicy(t *testing.T) {
	path := writeFile(t, "product.yaml", `
name: Sabão em pó
price: "15.90"
promotionalPrice: "16.00"
type: Limpeza
description: Caixa 1kg
expirationDate: "2027-01-31"
`)

	out, err := execute(t, "validate", "--kind", "product", path)
	assert.ErrorIs(t, err, errCheckFailed)
	assert.Contains(t, out, "error: promotionalPrice:")

	out, err = execute(t, "validate", "--kind", "product", "--promotion-warn", path)
	require.NoError(t, err, out)
	assert.Contains(t, out, "warning: promotionalPrice:")
}

func TestValidate_EditKeepsUnchangedFields(t *testing.T) {
	existing := writeFile(t, "stored.yaml", `
id: c-1
name: Paula Reis
email: paula@mail.com
cpf: "98765432100"
age: "35"
customerSince: "2021-03-01"
`)
	change := writeFile(t, "change.yaml", `phone: "(21) 3456-7890"`)

	out, err := execute(t, "validate", "--kind", "customer", "--mode", "edit", "--existing", existing, change)
	require.NoError(t, err, out)

	assert.Contains(t, out, "phone: \"2134567890\"")
	assert.Contains(t, out, "name: Paula Reis")
}

func TestValidate_BadFlags(t *testing.T) {
	path := writeFile(t, "r.yaml", "name: x\n")

	_, err := execute(t, "validate", path)
	assert.Error(t, err)

	_, err = execute(t, "validate", "--kind", "invoice", path)
	assert.ErrorIs(t, err, domain.ErrUnknownKind)

	_, err = execute(t, "validate", "--kind", "product", "--role", "janitor", path)
	assert.ErrorIs(t, err, domain.ErrUnknownRole)

	_, err = execute(t, "validate", "--kind", "product", filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestValidate_UnknownField(t *testing.T) {
	path := writeFile(t, "r.yaml", "barcode: \"789\"\n")

	_, err := execute(t, "validate", "--kind", "product", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "barcode")
}

// =============================================================================
// cpf / password
// =============================================================================

func TestCPF(t *testing.T) {
	out, err := execute(t, "cpf", "52998224725")
	require.NoError(t, err)
	assert.Contains(t, out, "masked: 529.982.247-25")
	assert.Contains(t, out, "valid:  true")

	out, err = execute(t, "cpf", "000.000.000-00")
	assert.ErrorIs(t, err, errCheckFailed)
	assert.Contains(t, out, "valid:  false")
}

func TestPassword(t *testing.T) {
	out, err := execute(t, "password", "Segura#2024")
	require.NoError(t, err)
	assert.Equal(t, 5, strings.Count(out, "[x]"))
	assert.Contains(t, out, "strong password")

	out, err = execute(t, "password", "abc")
	assert.ErrorIs(t, err, errCheckFailed)
	assert.Contains(t, out, "[ ] at least 8 characters")
	assert.Contains(t, out, "[x] a lowercase letter")
}

// =============================================================================
// token
// =============================================================================

func TestToken(t *testing.T) {
	out, err := execute(t, "token", "--user-id", "u-9", "--role", "manager", "--secret", "cli-secret")
	require.NoError(t, err)

	actor, err := auth.ParseToken(strings.TrimSpace(out), []byte("cli-secret"), time.Now())
	require.NoError(t, err)
	assert.Equal(t, "u-9", actor.UserID)
	assert.Equal(t, domain.RoleManager, actor.Role)
}

func TestToken_SecretFromEnv(t *testing.T) {
	t.Setenv(secretEnv, "env-secret")

	out, err := execute(t, "token", "--user-id", "u-1")
	require.NoError(t, err)

	_, err = auth.ParseToken(strings.TrimSpace(out), []byte("env-secret"), time.Now())
	assert.NoError(t, err)
}

func TestToken_RequiresSecret(t *testing.T) {
	t.Setenv(secretEnv, "")

	_, err := execute(t, "token", "--user-id", "u-1")
	assert.Error(t, err)

	_, err = execute(t, "token", "--secret", "s")
	assert.Error(t, err)
}
