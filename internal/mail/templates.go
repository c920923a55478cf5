package mail

import (
	"fmt"
	"strings"

	"github.com/helpdesk/it-helpdesk/internal/domain"
)

// Composer renders notification messages. Recipients are filled in by the caller.
type Composer struct {
	renderer  *Renderer
	portalURL string
}

// NewComposer returns a Composer that links to portalURL when it is set.
func NewComposer(renderer *Renderer, portalURL string) *Composer {
	if renderer == nil {
		renderer = NewRenderer()
	}
	return &Composer{renderer: renderer, portalURL: strings.TrimRight(portalURL, "/")}
}

func (c *Composer) layout(heading, bodyHTML string) string {
	var link string
	if c.portalURL != "" {
		link = fmt.Sprintf(`<p><a href="%s">Open the Help Desk</a></p>`, c.renderer.Text(c.portalURL))
	}
	return fmt.Sprintf(`<html>
<body>
<h2>%s</h2>
%s
%s
</body>
</html>`, c.renderer.Text(heading), bodyHTML, link)
}

func (c *Composer) markdownOrText(source string) string {
	rendered, err := c.renderer.Markdown(source)
	if err != nil {
		return "<p>" + c.renderer.Text(source) + "</p>"
	}
	return rendered
}

func fullName(u domain.User) string {
	return u.FullName()
}

// TicketCreated goes to every Admin and IT user.
func (c *Composer) TicketCreated(ticket domain.Ticket, submitter domain.User) Message {
	text := fmt.Sprintf("A new ticket '%s' has been created by %s. Check the Help Desk system.",
		ticket.Title, fullName(submitter))
	body := fmt.Sprintf("<p>A new ticket <strong>%s</strong> (priority %s) has been created by %s.</p>",
		c.renderer.Text(ticket.Title), ticket.Priority, c.renderer.Text(fullName(submitter)))
	return Message{
		Subject: "New Ticket Created",
		Text:    text,
		HTML:    c.layout("New Ticket Created", body),
	}
}

// TicketAssigned goes to the submitter.
func (c *Composer) TicketAssigned(ticket domain.Ticket, assignee domain.User) Message {
	text := fmt.Sprintf("Your ticket '%s' is now assigned to %s. Check the HelpDesk system.",
		ticket.Title, fullName(assignee))
	body := fmt.Sprintf("<p>Your ticket <strong>%s</strong> is now assigned to %s.</p>",
		c.renderer.Text(ticket.Title), c.renderer.Text(fullName(assignee)))
	return Message{
		Subject: "Ticket Status Assigned",
		Text:    text,
		HTML:    c.layout("Ticket Assigned", body),
	}
}

// TicketStatusChanged goes to the submitter and includes the resolution notes when present.
func (c *Composer) TicketStatusChanged(ticket domain.Ticket, oldStatus, newStatus domain.TicketStatus) Message {
	text := fmt.Sprintf("Your ticket '%s' is now %s (was %s). Check the HelpDesk system.",
		ticket.Title, newStatus, oldStatus)
	body := fmt.Sprintf("<p>Your ticket <strong>%s</strong> moved from %s to %s.</p>",
		c.renderer.Text(ticket.Title), oldStatus, newStatus)
	if ticket.ResolutionNotes != nil && strings.TrimSpace(*ticket.ResolutionNotes) != "" {
		text += "\n\nResolution notes:\n" + *ticket.ResolutionNotes
		body += "<h3>Resolution notes</h3>\n" + c.markdownOrText(*ticket.ResolutionNotes)
	}
	return Message{
		Subject: "Ticket Status Updated",
		Text:    text,
		HTML:    c.layout("Ticket Status Updated", body),
	}
}

// CommentAdded goes to the submitter, the assignee and prior commenters.
func (c *Composer) CommentAdded(ticket domain.Ticket, comment domain.TicketComment, author domain.User) Message {
	text := fmt.Sprintf("A new comment was added to ticket '%s' by %s. Check the HelpDesk system for details.\n\n%s",
		ticket.Title, fullName(author), comment.Content)
	body := fmt.Sprintf("<p>%s commented on <strong>%s</strong>:</p>\n%s",
		c.renderer.Text(fullName(author)), c.renderer.Text(ticket.Title), c.markdownOrText(comment.Content))
	return Message{
		Subject: "New Comment on Ticket",
		Text:    text,
		HTML:    c.layout("New Comment", body),
	}
}

// UserRegistered goes to every Admin and IT user.
func (c *Composer) UserRegistered(user domain.User) Message {
	text := fmt.Sprintf("A new user (%s) has registered and is waiting for confirmation.", user.Email)
	return Message{
		Subject: "New User Registration",
		Text:    text,
		HTML:    c.layout("New User Registration", "<p>"+c.renderer.Text(text)+"</p>"),
	}
}

// AccountUnderReview goes to the registrant.
func (c *Composer) AccountUnderReview() Message {
	const text = "Your registration is successful, but your account is under review. You will be notified once it is approved."
	return Message{
		Subject: "Account Under Review",
		Text:    text,
		HTML:    c.layout("Account Under Review", "<p>"+text+"</p>"),
	}
}

// AccountApproved goes to the approved user.
func (c *Composer) AccountApproved() Message {
	const text = "Your account has been approved. You can now log in."
	return Message{
		Subject: "Account Approved",
		Text:    text,
		HTML:    c.layout("Account Approved", "<p>"+text+"</p>"),
	}
}

// UserConfirmed goes to every Admin and IT user.
func (c *Composer) UserConfirmed(user domain.User) Message {
	text := fmt.Sprintf("User (%s) has been approved by Admin/IT.", user.Email)
	return Message{
		Subject: "User Confirmed",
		Text:    text,
		HTML:    c.layout("User Confirmed", "<p>"+c.renderer.Text(text)+"</p>"),
	}
}
