package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// PagesHandler 提供营销页面的静态文案。定价只是展示，不接支付。
type PagesHandler struct{}

// NewPagesHandler 构造 PagesHandler。
func NewPagesHandler() *PagesHandler {
	return &PagesHandler{}
}

type featureItem struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

type featureGroup struct {
	Category string        `json:"category"`
	Items    []featureItem `json:"items"`
}

var featuresCopy = []featureGroup{
	{
		Category: "Core Features",
		Items: []featureItem{
			{Title: "Smart Resume Upload", Description: "Upload any resume format and our AI instantly parses and extracts all information with 95% accuracy."},
			{Title: "AI-Powered Analysis", Description: "Advanced AI analyzes your resume and creates structured, professional portfolio content automatically."},
			{Title: "Professional Templates", Description: "Choose from 25+ professionally designed templates optimized for different industries and roles."},
			{Title: "Instant Website Hosting", Description: "Get your portfolio website live instantly with custom subdomain and optional custom domain support."},
		},
	},
	{
		Category: "AI Features",
		Items: []featureItem{
			{Title: "Job-Specific Optimization", Description: "AI optimizes your resume for specific job descriptions, increasing your match score by up to 40%."},
			{Title: "Smart Content Generation", Description: "AI generates compelling professional summaries and job descriptions based on your experience."},
			{Title: "Resume Optimization", Description: "Analyze job descriptions and optimize your resume to match requirements perfectly."},
			{Title: "Industry Intelligence", Description: "AI understands industry-specific requirements and tailors your portfolio accordingly."},
		},
	},
	{
		Category: "Workflow",
		Items: []featureItem{
			{Title: "Content Management", Description: "Easy-to-use editor lets you customize every aspect of your portfolio without coding knowledge."},
			{Title: "Mobile Optimization", Description: "All portfolios are fully responsive and optimized for mobile viewing and fast loading."},
			{Title: "Analytics Dashboard", Description: "Track portfolio views, visitor engagement, and performance metrics to optimize your job search."},
		},
	},
}

type pricingPlan struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Description  string   `json:"description"`
	MonthlyPrice int      `json:"monthly_price"`
	YearlyPrice  int      `json:"yearly_price"`
	Popular      bool     `json:"popular"`
	Features     []string `json:"features"`
	Limitations  []string `json:"limitations"`
}

var pricingCopy = []pricingPlan{
	{
		ID:           "free",
		Name:         "Free",
		Description:  "Perfect for trying out our platform",
		MonthlyPrice: 0,
		YearlyPrice:  0,
		Features: []string{
			"1 Portfolio Website",
			"Basic Templates (3)",
			"Subdomain Hosting",
			"Basic Resume Upload",
			"Community Support",
		},
		Limitations: []string{
			"No Custom Domain",
			"No Premium Templates",
			"No AI Optimization",
			"No Analytics",
		},
	},
	{
		ID:           "professional",
		Name:         "Professional",
		Description:  "Everything you need to stand out",
		MonthlyPrice: 19,
		YearlyPrice:  15,
		Popular:      true,
		Features: []string{
			"5 Portfolio Websites",
			"All Premium Templates",
			"Custom Domain Support",
			"AI Resume Optimization",
			"Advanced Customization",
			"Priority Support",
			"Job-Specific Optimization",
		},
		Limitations: []string{},
	},
	{
		ID:           "business",
		Name:         "Business",
		Description:  "For agencies and power users",
		MonthlyPrice: 49,
		YearlyPrice:  39,
		Features: []string{
			"Unlimited Portfolios",
			"All Templates + New Releases",
			"Multiple Custom Domains",
			"Advanced AI Features",
			"Dedicated Support",
			"Advanced Analytics",
		},
		Limitations: []string{},
	},
}

// GetFeatures 返回功能页文案。
func (h *PagesHandler) GetFeatures(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"groups": featuresCopy})
}

// GetPricing 返回定价页文案。
func (h *PagesHandler) GetPricing(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"plans": pricingCopy})
}
