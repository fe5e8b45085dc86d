package mcp

import (
	"context"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

const serverInstructions = `actionplan is a team task bot. You talk to it as one chat user.

Tools:
- send_message: type text. "/start", "/help", menu labels like "My Tasks", or free text while the bot is asking for input.
- press_button: press an inline button by its data token (shown as "[Label] -> data" in replies).
- upload_file: send a file reference when the bot asks for one.

Every call returns the bot's replies. Multi-step operations (new task, log activity, upload) keep state between calls; send /cancel to abandon one.

Docs:
- actionplan://docs/flows
- actionplan://docs/tokens
`

type docResource struct {
	URI         string
	Name        string
	Title       string
	Description string
	Content     string
}

var docResources = []docResource{
	{
		URI:         "actionplan://docs/flows",
		Name:        "docs_flows",
		Title:       "Multi-step operations",
		Description: "The steps of each operation and what input each step expects.",
		Content: `# Multi-step operations

One operation runs at a time per user. Starting another operation discards the current one. Idle operations expire.

## New task (/newtask, managers and technicians)

1. Category: press a cat:<category> button.
2. Description: send 5 to 1000 characters of text.
3. Confirm: optionally press prio:<normal|high|critical>, then press confirm.

The task gets a code such as INST-250301-001.

## Log activity (/log)

1. Type: press an act:<category> button.
2. Description: send at least 3 characters.
3. Start: press when:now or send a time such as "2 hours ago".
4. Duration: send 45m, 1h30m or minutes, or press skip.
5. Link: send a task code or press link:none.

Activity records are private to you.

## Upload (/upload)

Pick a task (upload:<code>), then call upload_file.
`,
	},
	{
		URI:         "actionplan://docs/tokens",
		Name:        "docs_tokens",
		Title:       "Button tokens",
		Description: "Button data tokens accepted outside a multi-step operation.",
		Content: `# Button tokens

- tasks:<filter>[:<page>]  filter is to_do, in_progress, pending, blocked, completed or all
- task:<code>  task detail
- status:<code>:<status>  change status (managers and technicians)
- upload:<code>  start an upload for a task
- acts:<page>  your activities
- stats:personal, stats:team
- cancel  abandon the current operation
`,
	},
}

func registerDocResources(server *sdkmcp.Server) {
	for _, doc := range docResources {
		server.AddResource(&sdkmcp.Resource{
			URI:         doc.URI,
			Name:        doc.Name,
			Title:       doc.Title,
			Description: doc.Description,
			MIMEType:    "text/markdown",
			Size:        int64(len(doc.Content)),
		}, func(_ context.Context, req *sdkmcp.ReadResourceRequest) (*sdkmcp.ReadResourceResult, error) {
			uri := doc.URI
			if req != nil && req.Params != nil && req.Params.URI != "" {
				uri = req.Params.URI
			}
			return &sdkmcp.ReadResourceResult{
				Contents: []*sdkmcp.ResourceContents{{
					URI:      uri,
					MIMEType: "text/markdown",
					Text:     doc.Content,
				}},
			}, nil
		})
	}
}
