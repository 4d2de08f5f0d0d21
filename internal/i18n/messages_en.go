package i18n

var english = map[string]string{
	"fields.email.label":                         "Email",
	"fields.email.placeholder":                   "you@example.com",
	"fields.email.validation.invalid_email":      "Please enter a valid email address.",
	"fields.email.validation.domain_not_allowed": "Email addresses from this domain are not allowed.",
	"fields.email.validation.domain_disallowed":  "Email addresses from this domain have been disallowed.",
	"fields.email.validation.contains_forbidden": "The email address contains a forbidden word.",
	"fields.email.validation.already_used":       "This email address is already used by another account.",
	"fields.email.search_result":                 "Email: %s",

	"fields.username.label":                   "Username",
	"fields.username.check":                   "Check username",
	"fields.username.validation.required":     "Please enter a username.",
	"fields.username.validation.too_short":    "The username must be at least %d characters.",
	"fields.username.validation.invalid":      "The username may only contain letters, digits, dots, dashes and underscores.",
	"fields.username.validation.already_used": "This username is already taken.",
	"fields.username.available":               "This username is available.",

	"apps.calendar.title":               "Calendar",
	"apps.calendar.not_allowed_to_edit": "You are not allowed to edit this calendar entry.",
	"apps.calendar.title_required":      "Please enter a title for the calendar entry.",
	"apps.calendar.end_before_start":    "The end date cannot be earlier than the start date.",
	"apps.calendar.invalid_date":        "The date could not be understood.",

	"auth.login_required":      "Please log in to continue.",
	"auth.invalid_credentials": "Invalid username or password.",
	"auth.oauth_failed":        "The external login could not be completed.",
	"csrf.invalid":             "Invalid token. Please reload the page and try again.",
	"common.not_found":         "The requested item could not be found.",
	"common.server_error":      "Something went wrong. Please try again later.",
	"common.invalid_request":   "The request could not be understood.",
	"users.privacy.invalid":    "Unknown privacy value.",
	"users.field.unknown":      "Unknown profile field.",
	"users.password.too_short": "The password must be at least %d characters.",
}
