package export

import "fmt"

// Service renders invitations into printable cards.
type Service struct{}

func NewService() *Service {
	return &Service{}
}

// ExportInvitePDF renders the invitation card and prints it to PDF.
func (s *Service) ExportInvitePDF(invitation Invitation) (*Result, error) {
	html, err := RenderInviteHTML(invitation)
	if err != nil {
		return nil, fmt.Errorf("render invite template: %w", err)
	}
	return exportPDF(html, invitation.Title)
}
