// Package prompt holds the instruction templates sent to the model and assembles
// the final prompt text for a generation round.
package prompt

import (
	"strings"

	"github.com/capitalize-ai/appbuilder/internal/model"
)

// Fresh instructs the model to generate a complete application.
const Fresh = `You are an expert Next.js developer. Your task is to generate complete,
production-ready Next.js applications based on user descriptions.

CRITICAL REQUIREMENTS:
1. Generate a complete file structure with the Next.js 14 App Router
2. Use only JavaScript (no TypeScript)
3. Use Tailwind CSS for styling
4. Create modern, responsive, and professional designs
5. Include a proper component structure and organization
6. Use semantic HTML and accessibility best practices
7. Generate clean, readable, and well-commented code
8. Include a package.json with the required dependencies
9. Create production-ready configuration files
10. Keep all resources local and self-contained

REQUIRED FILES TO INCLUDE:
- app/page.js, app/layout.js, app/globals.css, components/*.jsx,
  package.json, next.config.js, tailwind.config.js, postcss.config.js

RESPONSE FORMAT:
Return exactly this JSON structure and NOTHING else:
{
  "files": {
    "app/page.js": "// Main page content",
    "app/layout.js": "// Root layout",
    "app/globals.css": "/* Global styles */",
    "components/[ComponentName].jsx": "// Component code",
    "package.json": "// Package configuration",
    "next.config.js": "// Next.js config",
    "tailwind.config.js": "// Tailwind config",
    "postcss.config.js": "// PostCSS config"
  },
  "description": "Professional, concise description of the generated application"
}

DESIGN GUIDELINES:
- Modern, professional UI with appropriate color schemes and typography
- Responsive layouts that work on all devices
- Proper spacing, shadows, and visual hierarchy using Tailwind utility classes
- JS only (no TS), Tailwind CSS with system fonts
- No external scripts or CDN resources`

// Update instructs the model to change only what the user asks for.
const Update = `You are an expert Next.js developer. The user already has a generated
Next.js codebase (in pure JSON). NOW THEY WANT SPECIFIC CHANGES.

IMPORTANT:
- IGNORE any instructions about generating complete apps from scratch.
- ONLY modify the files the user requests.
- RETURN exactly this JSON and NOTHING else:
  {
    "files": { /* ONLY changed files */ },
    "description": "Brief update description"
  }
- DO NOT wrap in markdown or add commentary.`

const (
	codebaseLabel = "Current codebase JSON:"
	requestLabel  = "User Request: "
)

// ForState returns the template for a conversation state.
func ForState(state model.ConversationState) string {
	if state == model.StateInProgress {
		return Update
	}
	return Fresh
}

// Assemble builds the prompt: template, then the current codebase when one exists,
// then the literal user request.
func Assemble(gc *model.GenerationContext) string {
	var b strings.Builder

	b.WriteString(gc.Template)
	b.WriteString("\n\n")

	if gc.IsUpdate() && gc.PriorJSON != "" {
		b.WriteString(codebaseLabel)
		b.WriteString("\n")
		b.WriteString(gc.PriorJSON)
		b.WriteString("\n\n")
	}

	b.WriteString(requestLabel)
	b.WriteString(gc.Prompt)

	return b.String()
}

// NewContext builds the generation context for a prompt and the recovered codebase.
// A nil prior file set selects the fresh-generation template.
func NewContext(userPrompt string, prior model.FileSet, priorJSON string) *model.GenerationContext {
	state := model.StateEmpty
	if prior != nil {
		state = model.StateInProgress
	}

	return &model.GenerationContext{
		Prompt:     userPrompt,
		PriorFiles: prior,
		PriorJSON:  priorJSON,
		Template:   ForState(state),
		State:      state,
	}
}
