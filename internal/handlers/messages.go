package handlers

// User facing messages. They never expose internal detail.
const (
	msgLoginFailed       = "Usuario o contraseña incorrectos."
	msgLoginOK           = "Listo, entraste."
	msgNoFile            = "No seleccionaste ningún archivo."
	msgUnsupportedFormat = "Formato no soportado. Subí .xls o .xlsx"
	msgUploadTooLarge    = "El archivo supera el tamaño máximo permitido."
	msgUploadOK          = "Excel subido OK."
	msgForbidden         = "No tenés permisos para entrar ahí."
	msgArtifactNotFound  = "El archivo solicitado no existe."
	msgInvalidName       = "Nombre de archivo inválido."
	msgUnexpected        = "No se pudo completar la operación. Intentá de nuevo."
	msgSessionExpired    = "Tu sesión terminó. Volvé a ingresar."
)
