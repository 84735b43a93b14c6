package controller

import (
	"github.com/bassista/jobsync/internal/api/dataset"
	"github.com/bassista/jobsync/internal/logger"
	"github.com/bassista/jobsync/internal/model"
	"github.com/gin-gonic/gin"
)

// ReferralController serves a freelancer's own referrals.
type ReferralController struct {
	mine *ListController[model.Referral]
}

func NewReferralController(data *dataset.Dataset) *ReferralController {
	return &ReferralController{mine: &ListController[model.Referral]{
		Component: "referral-controller",
		Field:     "referrals",
		List: func(c *gin.Context) ([]model.Referral, error) {
			u, _ := CurrentUser(c)
			return data.ReferralsOf(u.ID), nil
		},
	}}
}

// MyReferrals handles GET /freelancer/referrals.
func (rc *ReferralController) MyReferrals(c *gin.Context) {
	logger.WithComponent("referral-controller").Debugf("GET /freelancer/referrals handler called")
	rc.mine.GetAll(c)
}
