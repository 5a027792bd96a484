package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"folioforge/internal/config"
	"folioforge/internal/database"
)

// seedTemplate 描述一条内置模板目录项。
type seedTemplate struct {
	Name        string
	Description string
	Category    string
	IsPremium   bool
	Config      map[string]any
}

var catalog = []seedTemplate{
	{
		Name:        "Modern Professional",
		Description: "Clean single-column layout for corporate roles.",
		Category:    "Professional",
		Config:      themeConfig("#1d4ed8", "#f8fafc", "Inter"),
	},
	{
		Name:        "Creative Portfolio",
		Description: "Bold typography and accent colors for designers.",
		Category:    "Creative",
		IsPremium:   true,
		Config:      themeConfig("#db2777", "#fdf2f8", "Poppins"),
	},
	{
		Name:        "Tech Minimal",
		Description: "Monospaced accents and project-first layout for engineers.",
		Category:    "Technology",
		Config:      themeConfig("#059669", "#f0fdf4", "JetBrains Mono"),
	},
	{
		Name:        "Executive Brief",
		Description: "Understated serif layout for senior leadership.",
		Category:    "Executive",
		IsPremium:   true,
		Config:      themeConfig("#334155", "#f8fafc", "Source Serif Pro"),
	},
	{
		Name:        "Corporate Standard",
		Description: "Conservative two-column layout for enterprise roles.",
		Category:    "Corporate",
		Config:      themeConfig("#0f766e", "#f0fdfa", "Roboto"),
	},
	{
		Name:        "Freelance Showcase",
		Description: "Client-work-first layout with testimonial slots.",
		Category:    "Freelance",
		IsPremium:   true,
		Config:      themeConfig("#d97706", "#fffbeb", "Nunito"),
	},
}

func themeConfig(primary, background, font string) map[string]any {
	return map[string]any{
		"primary_color":    primary,
		"background_color": background,
		"font_family":      font,
		"layout":           "single-column",
		"section_order": []string{
			"personal_info", "summary", "experience", "education", "skills", "projects",
		},
	}
}

func main() {
	var (
		dbHost  = flag.String("db-host", "", "数据库 Host（可选，默认读 DATABASE_HOST）")
		dbPort  = flag.Int("db-port", 0, "数据库 Port（可选，默认读 DATABASE_PORT）")
		dbName  = flag.String("db-name", "", "数据库名（可选，默认读 POSTGRES_DB）")
		dbUser  = flag.String("db-user", "", "数据库用户（可选，默认读 POSTGRES_USER）")
		dbPass  = flag.String("db-password", "", "数据库密码（可选，默认读 POSTGRES_PASSWORD）")
		sslMode = flag.String("db-sslmode", "", "数据库 SSLMODE（可选，默认读 DATABASE_SSLMODE）")
	)
	flag.Parse()

	dbCfg, err := loadDatabaseConfig(*dbHost, *dbPort, *dbName, *dbUser, *dbPass, *sslMode)
	if err != nil {
		log.Fatalf("load database config: %v", err)
	}

	db, err := database.InitDatabase(dbCfg)
	if err != nil {
		log.Fatalf("init database: %v", err)
	}

	if err := db.AutoMigrate(&database.Template{}); err != nil {
		log.Fatalf("auto migrate: %v", err)
	}

	created := 0
	for _, entry := range catalog {
		var existing database.Template
		switch err := db.Where("name = ?", entry.Name).First(&existing).Error; {
		case err == nil:
			continue
		case errors.Is(err, gorm.ErrRecordNotFound):
		default:
			log.Fatalf("query template %q: %v", entry.Name, err)
		}

		cfgBlob, err := json.Marshal(entry.Config)
		if err != nil {
			log.Fatalf("marshal template config %q: %v", entry.Name, err)
		}

		template := database.Template{
			Name:           entry.Name,
			Description:    entry.Description,
			Category:       entry.Category,
			IsPremium:      database.BoolInt(entry.IsPremium),
			TemplateConfig: datatypes.JSON(cfgBlob),
		}
		if err := db.Create(&template).Error; err != nil {
			log.Fatalf("create template %q: %v", entry.Name, err)
		}
		created++
	}

	fmt.Printf("模板目录就绪：新增 %d 条，共 %d 条。\n", created, len(catalog))
}

func loadDatabaseConfig(host string, port int, name, user, password, sslmode string) (config.DatabaseConfig, error) {
	if strings.TrimSpace(host) == "" {
		host = os.Getenv("DATABASE_HOST")
	}
	if port <= 0 {
		if env := strings.TrimSpace(os.Getenv("DATABASE_PORT")); env != "" {
			p, err := strconv.Atoi(env)
			if err != nil {
				return config.DatabaseConfig{}, fmt.Errorf("parse DATABASE_PORT: %w", err)
			}
			port = p
		}
	}
	if strings.TrimSpace(name) == "" {
		name = os.Getenv("POSTGRES_DB")
	}
	if strings.TrimSpace(user) == "" {
		user = os.Getenv("POSTGRES_USER")
	}
	if strings.TrimSpace(password) == "" {
		password = os.Getenv("POSTGRES_PASSWORD")
	}
	if strings.TrimSpace(sslmode) == "" {
		sslmode = os.Getenv("DATABASE_SSLMODE")
	}

	if strings.TrimSpace(host) == "" {
		host = "localhost"
	}
	if port <= 0 {
		port = 5432
	}
	if strings.TrimSpace(sslmode) == "" {
		sslmode = "disable"
	}
	if strings.TrimSpace(name) == "" {
		return config.DatabaseConfig{}, errors.New("database name is required (POSTGRES_DB)")
	}
	if strings.TrimSpace(user) == "" {
		return config.DatabaseConfig{}, errors.New("database user is required (POSTGRES_USER)")
	}
	if strings.TrimSpace(password) == "" {
		return config.DatabaseConfig{}, errors.New("database password is required (POSTGRES_PASSWORD)")
	}

	return config.DatabaseConfig{
		Host:     host,
		Port:     port,
		Name:     name,
		User:     user,
		Password: password,
		SSLMode:  sslmode,
	}, nil
}
