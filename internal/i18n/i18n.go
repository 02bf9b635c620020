// Package i18n provides the small translation table for the UI. Spanish is
// the primary language of the collection routes; English is kept for back
// office staff.
package i18n

import "strings"

var translations = map[string]map[string]string{
	"es": {
		"login.title":        "Iniciar sesión",
		"login.invalid":      "Usuario o contraseña incorrectos.",
		"login.required":     "Debe iniciar sesión.",
		"login.throttled":    "Demasiados intentos. Espere un momento.",
		"logout.done":        "Sesión cerrada.",
		"denied":             "No tiene permiso.",
		"client.created":     "Cliente creado correctamente.",
		"client.notfound":    "Cliente no encontrado.",
		"client.name":        "El nombre es obligatorio.",
		"client.reassigned":  "Cliente reasignado correctamente.",
		"reassign.same":      "No puede reasignar al mismo cobrador.",
		"reassign.done":      "Reasignación completada.",
		"loan.created":       "Préstamo creado exitosamente.",
		"loan.notfound":      "Préstamo no encontrado.",
		"loan.invalid":       "Datos del préstamo inválidos.",
		"loan.fee":           "Solo el administrador puede poner fee 0%.",
		"payment.saved":      "Pago registrado.",
		"payment.invalid":    "Pago inválido.",
		"expense.saved":      "Registro guardado.",
	},
	"en": {
		"login.title":        "Sign in",
		"login.invalid":      "Wrong username or password.",
		"login.required":     "You must sign in.",
		"login.throttled":    "Too many attempts. Wait a moment.",
		"logout.done":        "Signed out.",
		"denied":             "Permission denied.",
		"client.created":     "Client created.",
		"client.notfound":    "Client not found.",
		"client.name":        "First name is required.",
		"client.reassigned":  "Client reassigned.",
		"reassign.same":      "Source and target collector must differ.",
		"reassign.done":      "Reassignment completed.",
		"loan.created":       "Loan created.",
		"loan.notfound":      "Loan not found.",
		"loan.invalid":       "Invalid loan terms.",
		"loan.fee":           "Only the administrator may set a 0% fee.",
		"payment.saved":      "Payment recorded.",
		"payment.invalid":    "Invalid payment.",
		"expense.saved":      "Entry saved.",
	},
}

// T translates code for lang, falling back to Spanish, then to the code
// itself so missing entries stay visible instead of blank.
func T(lang, code string) string {
	if m, ok := translations[lang]; ok {
		if s, ok := m[code]; ok {
			return s
		}
	}
	if s, ok := translations["es"][code]; ok {
		return s
	}
	return code
}

// DetectLanguage picks a supported language from an Accept-Language header.
func DetectLanguage(header string) string {
	h := strings.ToLower(header)
	if strings.HasPrefix(h, "en") || strings.Contains(h, ",en") {
		return "en"
	}
	return "es"
}
