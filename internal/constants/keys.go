package constants

// Keys recognized in qflow_vars.sh "set key=value" lines.
const (
	KeyProjectPath  = "projectpath"
	KeyScriptDir    = "scriptdir"
	KeyTechDir      = "techdir"
	KeyQflowVersion = "qflowversion"
)
