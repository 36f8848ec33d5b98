package storage

import (
	"fmt"
)

// ListCampaignsByUser returns a user's campaigns, newest first.
func ListCampaignsByUser(userID int64) ([]*UserCampaign, error) {
	return listCampaigns(`WHERE user_id = ?`, userID)
}

// ListCampaignsByType returns all campaigns of one type, newest first.
func ListCampaignsByType(campaignType string) ([]*UserCampaign, error) {
	return listCampaigns(`WHERE campaign_type = ?`, campaignType)
}

// ListCampaigns returns every campaign, newest first. Admin surface only.
func ListCampaigns() ([]*UserCampaign, error) {
	return listCampaigns(``)
}

func listCampaigns(where string, args ...interface{}) ([]*UserCampaign, error) {
	rows, err := db.Query(`
		SELECT id, user_id, campaign_type, link, goal, cost, status, progress, created_at
		FROM user_campaigns `+where+`
		ORDER BY created_at DESC
	`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list campaigns: %w", err)
	}
	defer rows.Close()

	var campaigns []*UserCampaign
	for rows.Next() {
		var c UserCampaign
		err := rows.Scan(&c.ID, &c.UserID, &c.CampaignType, &c.Link, &c.Goal, &c.Cost,
			&c.Status, &c.Progress, &c.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan campaign: %w", err)
		}
		campaigns = append(campaigns, &c)
	}
	return campaigns, rows.Err()
}

// GetCampaign retrieves one campaign by ID.
func GetCampaign(id int64) (*UserCampaign, error) {
	var c UserCampaign
	err := db.QueryRow(`
		SELECT id, user_id, campaign_type, link, goal, cost, status, progress, created_at
		FROM user_campaigns
		WHERE id = ?
	`, id).Scan(&c.ID, &c.UserID, &c.CampaignType, &c.Link, &c.Goal, &c.Cost,
		&c.Status, &c.Progress, &c.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to get campaign: %w", err)
	}
	return &c, nil
}
