package gateway

// System contexts for the screenshot-to-code path. The model receives the
// screenshot as an image attachment; these set the output contract.

const screenshotPageSystemContext = `You are an expert front-end developer. You will be shown a screenshot of a web page. Reproduce it as a single self-contained HTML document using semantic markup and embedded CSS. Match layout, spacing, colors and typography as closely as possible. Use placeholder images of matching dimensions where the screenshot contains photos. Respond with the HTML document only, no explanation and no markdown fences.`

const screenshotElementSystemContext = `You are an expert front-end developer. You will be shown a screenshot of a single UI element. Reproduce just that element as an HTML fragment with embedded CSS, suitable for insertion into an existing page. Match its appearance as closely as possible. Respond with the HTML fragment only, no explanation and no markdown fences.`

// screenshotSystemContext returns the system context for a conversion mode
func screenshotSystemContext(mode string) string {
	if mode == ModeElement {
		return screenshotElementSystemContext
	}
	return screenshotPageSystemContext
}

// screenshotUserPrompt builds the user message, folding in any surrounding
// page HTML the client supplied for context.
func screenshotUserPrompt(mode, contextHTML string) string {
	prompt := "Convert this screenshot to code."
	if mode == ModeElement {
		prompt = "Convert this screenshot of a UI element to code."
	}
	if contextHTML != "" {
		prompt += "\n\nThe element will be placed inside the following page, match its style:\n" + contextHTML
	}
	return prompt
}
