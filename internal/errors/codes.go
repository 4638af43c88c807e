package errors

// Error code constants, one per spec.md §7 error kind, grouped by the
// pass that raises them.
const (
	// Desugarer (DSG###)
	DSG001AssignToCall = "DSG001" // AssignToCall

	// Class Loader (CLS###)
	CLS001UnknownType     = "CLS001" // UnknownType: unresolved supertype
	CLS002DuplicateClass  = "CLS002" // a class name defined more than once

	// Field Loader (FLD###)
	FLD001FieldUndefined     = "FLD001" // FieldUndefined
	FLD002FieldNotOnAllPaths = "FLD002" // FieldNotOnAllPaths

	// Return Checker (RET###)
	RET001MissingReturn = "RET001" // MissingReturn

	// Variable Checker (VAR###)
	VAR001VarUndefined = "VAR001" // VarUndefined

	// Type Checker (TC###)
	TC001UnknownType                    = "TC001" // UnknownType (method/field/ctor resolution)
	TC002UnknownField                   = "TC002" // UnknownField
	TC003UnknownMethod                  = "TC003" // UnknownMethod
	TC004UnknownClass                   = "TC004" // UnknownClass (c_call target)
	TC005NotASubtype                    = "TC005" // NotASubtype
	TC006ArityMismatch                  = "TC006" // ArityMismatch
	TC007BooleanOperandRequired         = "TC007" // BooleanOperandRequired
	TC008WrongReturnType                = "TC008" // WrongReturnType
	TC009InheritedFieldMissing          = "TC009" // InheritedFieldMissing
	TC010InheritedFieldNotSubtype       = "TC010" // InheritedFieldNotSubtype
	TC011OverrideArityMismatch          = "TC011" // OverrideArityMismatch
	TC012OverrideParamNotContravariant  = "TC012" // OverrideParamNotContravariant
	TC013OverrideReturnNotCovariant     = "TC013" // OverrideReturnNotCovariant

	// Generator/Emitter (GEN###)
	GEN001LabelCollision = "GEN001" // internal invariant: duplicate label definition

	// CLI driver (CLI###)
	CLI001BadInvocation = "CLI001" // bad command-line invocation
)

// ErrorInfo is human-facing metadata about one error code.
type ErrorInfo struct {
	Code        string
	Phase       string
	Description string
}

// ErrorRegistry maps every code above to its phase/description, in the
// style of the teacher's error-code registry.
var ErrorRegistry = map[string]ErrorInfo{
	DSG001AssignToCall: {DSG001AssignToCall, "desugar", "Assignment to a call expression"},

	CLS001UnknownType:    {CLS001UnknownType, "classload", "Unknown supertype name"},
	CLS002DuplicateClass: {CLS002DuplicateClass, "classload", "Class name defined more than once"},

	FLD001FieldUndefined:     {FLD001FieldUndefined, "fieldcheck", "Field read before any store on this path"},
	FLD002FieldNotOnAllPaths: {FLD002FieldNotOnAllPaths, "fieldcheck", "Field not stored on all control-flow paths"},

	RET001MissingReturn: {RET001MissingReturn, "retcheck", "Method has a path with no return"},

	VAR001VarUndefined: {VAR001VarUndefined, "varcheck", "Local variable used before assignment"},

	TC001UnknownType:                   {TC001UnknownType, "typecheck", "Unknown class name"},
	TC002UnknownField:                  {TC002UnknownField, "typecheck", "Unknown field"},
	TC003UnknownMethod:                 {TC003UnknownMethod, "typecheck", "Unknown method"},
	TC004UnknownClass:                  {TC004UnknownClass, "typecheck", "Unknown class in constructor call"},
	TC005NotASubtype:                   {TC005NotASubtype, "typecheck", "Value is not a subtype of the expected type"},
	TC006ArityMismatch:                 {TC006ArityMismatch, "typecheck", "Call-site argument count disagrees with signature"},
	TC007BooleanOperandRequired:        {TC007BooleanOperandRequired, "typecheck", "and/or/condition/ternary operand is not Bool"},
	TC008WrongReturnType:               {TC008WrongReturnType, "typecheck", "Return value is not a subtype of the declared return type"},
	TC009InheritedFieldMissing:         {TC009InheritedFieldMissing, "typecheck", "Subclass is missing an inherited field"},
	TC010InheritedFieldNotSubtype:      {TC010InheritedFieldNotSubtype, "typecheck", "Inherited field's type is not a subtype of the supertype's"},
	TC011OverrideArityMismatch:         {TC011OverrideArityMismatch, "typecheck", "Overriding method has a different arity"},
	TC012OverrideParamNotContravariant: {TC012OverrideParamNotContravariant, "typecheck", "Overriding method's parameter type is not contravariant"},
	TC013OverrideReturnNotCovariant:    {TC013OverrideReturnNotCovariant, "typecheck", "Overriding method's return type is not covariant"},

	GEN001LabelCollision: {GEN001LabelCollision, "codegen", "Duplicate label definition within one method"},

	CLI001BadInvocation: {CLI001BadInvocation, "cli", "Bad command-line invocation"},
}

// GetErrorInfo returns information about an error code.
func GetErrorInfo(code string) (ErrorInfo, bool) {
	info, ok := ErrorRegistry[code]
	return info, ok
}

// IsTypeError reports whether code belongs to the Type Checker phase.
func IsTypeError(code string) bool {
	info, ok := GetErrorInfo(code)
	return ok && info.Phase == "typecheck"
}
