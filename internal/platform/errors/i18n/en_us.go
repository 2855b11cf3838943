package i18n

// Error codes must match the codes defined in internal/platform/errors/codes.go.
// These are duplicated as strings to avoid an import cycle.
const (
	CodeTooManyImages            = "TOO_MANY_IMAGES"
	CodeInvalidPropertyType      = "INVALID_PROPERTY_TYPE"
	CodeInvalidPropertyStatus    = "INVALID_PROPERTY_STATUS"
	CodeInvalidCertificateType   = "INVALID_CERTIFICATE_TYPE"
	CodeInsufficientPayment      = "INSUFFICIENT_PAYMENT"
	CodeInsufficientAmount       = "INSUFFICIENT_AMOUNT"
	CodeMessageTooLong           = "MESSAGE_TOO_LONG"
	CodeProfileNotFound          = "PROFILE_NOT_FOUND"
	CodeCreatorInactive          = "CREATOR_INACTIVE"
	CodeCreatorAlreadyRegistered = "CREATOR_ALREADY_REGISTERED"
	CodeUnauthorized             = "UNAUTHORIZED"
	CodeInvalidInput             = "INVALID_INPUT"
	CodeInvalidAddress           = "INVALID_ADDRESS"
	CodeArithmeticOverflow       = "ARITHMETIC_OVERFLOW"
	CodeInsufficientFunds        = "INSUFFICIENT_FUNDS"
	CodeNotFound                 = "NOT_FOUND"
	CodeAlreadyExists            = "ALREADY_EXISTS"
)

var enUSCatalog = &Catalog{
	locale: "en-US",
	messages: map[Code]string{
		// Listing errors
		CodeTooManyImages:          "A property can have at most {{.Max}} images",
		CodeInvalidPropertyType:    "Property type code {{.Code}} is not recognized",
		CodeInvalidPropertyStatus:  "Property status code {{.Code}} is not recognized",
		CodeInvalidCertificateType: "Certificate type code {{.Code}} is not recognized",
		CodeInsufficientPayment:    "Payment of {{.Paid}} is below the listed price of {{.Price}}",

		// Tipping errors
		CodeInsufficientAmount:       "Amount is below the required {{.Required}}",
		CodeMessageTooLong:           "Messages are limited to {{.Max}} characters",
		CodeProfileNotFound:          "No creator profile exists for this address",
		CodeCreatorInactive:          "This creator is not accepting donations",
		CodeCreatorAlreadyRegistered: "A creator profile already exists for this address",

		// Shared errors
		CodeUnauthorized:       "You are not allowed to perform this operation",
		CodeInvalidInput:       "The request contains an invalid value",
		CodeInvalidAddress:     "The address is not valid",
		CodeArithmeticOverflow: "The amount is too large to record",
		CodeInsufficientFunds:  "The wallet balance is too low for this payment",

		// Storage errors
		CodeNotFound:      "The requested resource was not found",
		CodeAlreadyExists: "The resource already exists",
	},
}
