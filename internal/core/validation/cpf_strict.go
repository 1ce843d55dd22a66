//go:build !cpfrelaxed

package validation

const activeCPFPolicy = PolicyStrict
