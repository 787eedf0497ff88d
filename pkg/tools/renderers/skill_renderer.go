package renderers

import (
	"fmt"
	"strings"

	"github.com/jingkaihe/skillrunner/pkg/types/tools"
)

// SkillRenderer renders load_skill results
type SkillRenderer struct{}

// RenderCLI renders skill results in CLI format
func (r *SkillRenderer) RenderCLI(result tools.StructuredToolResult) string {
	if !result.Success {
		return result.Error
	}

	var meta tools.LoadSkillMetadata
	if !extractMetadata(result.Metadata, &meta) {
		return "Error: Invalid metadata type for load_skill"
	}

	var out strings.Builder
	fmt.Fprintf(&out, "Skill '%s' loaded from %s", meta.SkillName, meta.Directory)
	if len(meta.Scripts) > 0 {
		fmt.Fprintf(&out, "\nScripts: %s", strings.Join(meta.Scripts, ", "))
	}
	if len(meta.MissingScripts) > 0 {
		fmt.Fprintf(&out, "\nMissing scripts: %s", strings.Join(meta.MissingScripts, ", "))
	}
	return out.String()
}
