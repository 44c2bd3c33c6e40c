package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"

	"nestcare/internal/clock"
	"nestcare/internal/config"
	"nestcare/internal/database"
	"nestcare/internal/models"
	"nestcare/internal/repository"
	"nestcare/internal/service"
)

const dateLayout = "2006-01-02"

type app struct {
	clk       *clock.Clock
	parties   *repository.PartyRepository
	timelines *service.TimelineService
	relations *service.RelationService
	careLogs  *service.CareLogService
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	// Optional .env for local use
	_ = godotenv.Load()

	cfg := config.Load()

	clk, err := clock.New(cfg.TimeZone)
	if err != nil {
		log.Fatalf("Failed to load time zone: %v", err)
	}

	db, err := database.InitializeWithConfig(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	if err := db.RunMigrations(cfg.MigrationsPath); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	partyRepo := repository.NewPartyRepository(db)
	timelineRepo := repository.NewTimelineRepository(db)
	relationRepo := repository.NewRelationRepository(db)
	careLogRepo := repository.NewCareLogRepository(db)

	emailService, err := service.NewEmailService(
		cfg.AWSRegion, cfg.SESFromEmail, cfg.SESFromName, cfg.AppBaseURL, cfg.EmailDebug)
	if err != nil {
		log.Fatalf("Failed to initialize email service: %v", err)
	}

	relationService := service.NewRelationService(
		relationRepo, timelineRepo, partyRepo, emailService, cfg.RetainRejected)
	timelineService := service.NewTimelineService(timelineRepo, relationService, clk)
	careLogService := service.NewCareLogService(careLogRepo, relationService)

	a := &app{
		clk:       clk,
		parties:   partyRepo,
		timelines: timelineService,
		relations: relationService,
		careLogs:  careLogService,
	}

	switch os.Args[1] {
	case "party-add":
		a.partyAdd(os.Args[2:])
	case "party-list":
		a.partyList()
	case "timeline-create":
		a.timelineCreate(os.Args[2:])
	case "timeline-show":
		a.timelineShow(os.Args[2:])
	case "update-anchors":
		a.updateAnchors(os.Args[2:])
	case "record-birth":
		a.recordBirth(os.Args[2:])
	case "ages":
		a.ages(os.Args[2:])
	case "request":
		a.request(os.Args[2:])
	case "decide":
		a.decide(os.Args[2:])
	case "relations":
		a.listRelations(os.Args[2:])
	case "my-relations":
		a.myRelations(os.Args[2:])
	case "feed":
		a.feed(os.Args[2:])
	case "feedings":
		a.feedings(os.Args[2:])
	default:
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Usage: nestctl <command> [flags]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  party-add        -name NAME [-email EMAIL]")
	fmt.Println("  party-list")
	fmt.Println("  timeline-create  -nickname NAME -lmp DATE [-edd DATE] [-fixed DAYS] -creator ID")
	fmt.Println("  timeline-show    -timeline ID -party ID")
	fmt.Println("  update-anchors   -timeline ID -party ID -lmp DATE [-edd DATE] [-fixed DAYS]")
	fmt.Println("  record-birth     -timeline ID -party ID -at DATETIME")
	fmt.Println("  ages             -timeline ID -party ID [-date DATE]")
	fmt.Println("  request          -nickname NAME -party ID")
	fmt.Println("  decide           -relation ID -party ID -status STATUS")
	fmt.Println("  relations        -timeline ID -party ID")
	fmt.Println("  my-relations     -party ID")
	fmt.Println("  feed             -timeline ID -party ID -amount ML [-note TEXT]")
	fmt.Println("  feedings         -timeline ID -party ID [-limit N]")
}

func (a *app) partyAdd(args []string) {
	fs := flag.NewFlagSet("party-add", flag.ExitOnError)
	name := fs.String("name", "", "Display name (required)")
	email := fs.String("email", "", "Notification email")
	fs.Parse(args)

	if *name == "" {
		log.Fatal("-name is required")
	}

	party, err := a.parties.CreateParty(*name, *email)
	if err != nil {
		log.Fatalf("Failed to create party: %v", err)
	}
	fmt.Printf("Created party %d (%s)\n", party.ID, party.Name)
}

func (a *app) partyList() {
	parties, err := a.parties.ListParties()
	if err != nil {
		log.Fatalf("Failed to list parties: %v", err)
	}
	for _, p := range parties {
		fmt.Printf("%d\t%s\t%s\n", p.ID, p.Name, p.Email)
	}
}

func (a *app) timelineCreate(args []string) {
	fs := flag.NewFlagSet("timeline-create", flag.ExitOnError)
	nickname := fs.String("nickname", "", "Unique nickname (required)")
	lmpStr := fs.String("lmp", "", "Last menstrual period, YYYY-MM-DD (required)")
	eddStr := fs.String("edd", "", "Estimated due date, YYYY-MM-DD")
	fixed := fs.Int("fixed", 0, "Ultrasound dating offset in days")
	creator := fs.Int64("creator", 0, "Creator party ID (required)")
	fs.Parse(args)

	lmp, err := time.Parse(dateLayout, *lmpStr)
	if err != nil {
		log.Fatalf("Invalid -lmp: %v", err)
	}
	var edd *time.Time
	if *eddStr != "" {
		d, err := time.Parse(dateLayout, *eddStr)
		if err != nil {
			log.Fatalf("Invalid -edd: %v", err)
		}
		edd = &d
	}

	timeline, err := a.timelines.CreateTimeline(*nickname, lmp, edd, *fixed, *creator)
	if err != nil {
		log.Fatalf("Failed to create timeline: %v", err)
	}
	fmt.Printf("Created timeline %d (%s), due %s\n",
		timeline.ID, timeline.Nickname, timeline.DueDate().Format(dateLayout))
}

func (a *app) timelineShow(args []string) {
	fs := flag.NewFlagSet("timeline-show", flag.ExitOnError)
	timelineID := fs.Int64("timeline", 0, "Timeline ID (required)")
	partyID := fs.Int64("party", 0, "Acting party ID (required)")
	fs.Parse(args)

	timeline, err := a.timelines.ViewTimeline(*timelineID, *partyID)
	if err != nil {
		log.Fatalf("Failed to show timeline: %v", err)
	}

	fmt.Printf("%d\t%s\n", timeline.ID, timeline.Nickname)
	fmt.Printf("  LMP:       %s\n", timeline.LastMenstrualPeriod.Format(dateLayout))
	fmt.Printf("  due date:  %s", timeline.DueDate().Format(dateLayout))
	if timeline.HasDueDateOverride() {
		fmt.Print(" (override)")
	}
	fmt.Println()
	if timeline.Birthday != nil {
		fmt.Printf("  born:      %s\n", timeline.Birthday.Format(time.RFC3339))
	}
	if timeline.UltrasoundFixedDays != 0 {
		fmt.Printf("  ultrasound offset: %dd\n", timeline.UltrasoundFixedDays)
	}
}

func (a *app) updateAnchors(args []string) {
	fs := flag.NewFlagSet("update-anchors", flag.ExitOnError)
	timelineID := fs.Int64("timeline", 0, "Timeline ID (required)")
	partyID := fs.Int64("party", 0, "Acting party ID (required)")
	lmpStr := fs.String("lmp", "", "Last menstrual period, YYYY-MM-DD (required)")
	eddStr := fs.String("edd", "", "Estimated due date, YYYY-MM-DD")
	fixed := fs.Int("fixed", 0, "Ultrasound dating offset in days")
	fs.Parse(args)

	lmp, err := time.Parse(dateLayout, *lmpStr)
	if err != nil {
		log.Fatalf("Invalid -lmp: %v", err)
	}
	var edd *time.Time
	if *eddStr != "" {
		d, err := time.Parse(dateLayout, *eddStr)
		if err != nil {
			log.Fatalf("Invalid -edd: %v", err)
		}
		edd = &d
	}

	timeline, err := a.timelines.UpdateAnchors(*timelineID, *partyID, lmp, edd, *fixed)
	if err != nil {
		log.Fatalf("Failed to update anchors: %v", err)
	}
	fmt.Printf("Updated anchors for %s, due %s\n",
		timeline.Nickname, timeline.DueDate().Format(dateLayout))
}

func (a *app) recordBirth(args []string) {
	fs := flag.NewFlagSet("record-birth", flag.ExitOnError)
	timelineID := fs.Int64("timeline", 0, "Timeline ID (required)")
	partyID := fs.Int64("party", 0, "Acting party ID (required)")
	at := fs.String("at", "", "Birth time, RFC 3339 (required)")
	fs.Parse(args)

	birthday, err := time.Parse(time.RFC3339, *at)
	if err != nil {
		log.Fatalf("Invalid -at: %v", err)
	}

	timeline, err := a.timelines.RecordBirth(*timelineID, *partyID, birthday)
	if err != nil {
		log.Fatalf("Failed to record birth: %v", err)
	}
	fmt.Printf("Recorded birth for %s (preterm: %v)\n", timeline.Nickname, *timeline.Preterm)
}

func (a *app) ages(args []string) {
	fs := flag.NewFlagSet("ages", flag.ExitOnError)
	timelineID := fs.Int64("timeline", 0, "Timeline ID (required)")
	partyID := fs.Int64("party", 0, "Acting party ID (required)")
	dateStr := fs.String("date", "", "As-of date, YYYY-MM-DD (default today)")
	fs.Parse(args)

	var asOf *time.Time
	if *dateStr != "" {
		d, err := time.Parse(dateLayout, *dateStr)
		if err != nil {
			log.Fatalf("Invalid -date: %v", err)
		}
		asOf = &d
	}

	report, err := a.timelines.Ages(*timelineID, *partyID, asOf)
	if err != nil {
		log.Fatalf("Failed to compute ages: %v", err)
	}

	fmt.Printf("%s as of %s\n", report.Nickname, report.AsOf.Format(dateLayout))
	fmt.Printf("  days since LMP:      %d\n", report.DaysSinceLMP)
	fmt.Printf("  gestational age:     %dd (ultrasound-fixed: %dd)\n",
		report.GestationalAgeDays, report.GestationalAgeFixedDays)
	fmt.Printf("  due date:            %s (%d days)\n", report.DueDate.Format(dateLayout), report.DaysToDue)
	fmt.Printf("  born:                %v, preterm: %v\n", report.Born, report.Preterm)
	printAge := func(label string, v *int) {
		if v == nil {
			fmt.Printf("  %s not born yet\n", label)
			return
		}
		fmt.Printf("  %s %dd\n", label, *v)
	}
	printAge("postmenstrual age:  ", report.PostmenstrualAgeDays)
	printAge("chronological age:  ", report.ChronologicalAgeDays)
	printAge("corrected age:      ", report.CorrectedAgeDays)
}

func (a *app) request(args []string) {
	fs := flag.NewFlagSet("request", flag.ExitOnError)
	nickname := fs.String("nickname", "", "Timeline nickname (required)")
	partyID := fs.Int64("party", 0, "Requesting party ID (required)")
	fs.Parse(args)

	relation, created, err := a.relations.Request(*nickname, *partyID)
	if err != nil {
		log.Fatalf("Failed to request relation: %v", err)
	}
	if created {
		fmt.Printf("Request %d created (reference %s), awaiting a guardian's decision\n",
			relation.ID, relation.Reference)
	} else {
		fmt.Printf("Already requested: relation %d is %s\n", relation.ID, relation.Status)
	}
}

func (a *app) decide(args []string) {
	fs := flag.NewFlagSet("decide", flag.ExitOnError)
	relationID := fs.Int64("relation", 0, "Relation ID (required)")
	partyID := fs.Int64("party", 0, "Deciding party ID (required)")
	statusName := fs.String("status", "", "guardian, relative, caregiver or rejected (required)")
	fs.Parse(args)

	status, err := models.ParseRelationStatus(*statusName)
	if err != nil {
		log.Fatalf("Invalid -status: %v", err)
	}

	relation, err := a.relations.Decide(*relationID, *partyID, status)
	if err != nil {
		log.Fatalf("Failed to decide: %v", err)
	}
	fmt.Printf("Relation %d is now %s\n", relation.ID, relation.Status)
}

func (a *app) listRelations(args []string) {
	fs := flag.NewFlagSet("relations", flag.ExitOnError)
	timelineID := fs.Int64("timeline", 0, "Timeline ID (required)")
	partyID := fs.Int64("party", 0, "Acting party ID (required)")
	fs.Parse(args)

	relations, err := a.relations.ListForTimeline(*timelineID, *partyID)
	if err != nil {
		log.Fatalf("Failed to list relations: %v", err)
	}
	for _, rel := range relations {
		fmt.Printf("%d\tparty %d\t%s\trequested %s\n",
			rel.ID, rel.PartyID, rel.Status, rel.RequestedAt.Format(time.RFC3339))
	}
}

func (a *app) myRelations(args []string) {
	fs := flag.NewFlagSet("my-relations", flag.ExitOnError)
	partyID := fs.Int64("party", 0, "Party ID (required)")
	fs.Parse(args)

	relations, err := a.relations.ListForParty(*partyID)
	if err != nil {
		log.Fatalf("Failed to list relations: %v", err)
	}
	for _, rel := range relations {
		fmt.Printf("%d\ttimeline %d\t%s\trequested %s\n",
			rel.ID, rel.TimelineID, rel.Status, rel.RequestedAt.Format(time.RFC3339))
	}
}

func (a *app) feed(args []string) {
	fs := flag.NewFlagSet("feed", flag.ExitOnError)
	timelineID := fs.Int64("timeline", 0, "Timeline ID (required)")
	partyID := fs.Int64("party", 0, "Acting party ID (required)")
	amount := fs.Float64("amount", 0, "Amount in ml (required)")
	note := fs.String("note", "", "Optional note")
	fs.Parse(args)

	feeding, err := a.careLogs.AddFeeding(*partyID, &models.Feeding{
		TimelineID: *timelineID,
		FedAt:      a.clk.Now(),
		AmountML:   *amount,
		Note:       *note,
	})
	if err != nil {
		log.Fatalf("Failed to add feeding: %v", err)
	}
	fmt.Printf("Recorded feeding %d (%.0f ml)\n", feeding.ID, feeding.AmountML)
}

func (a *app) feedings(args []string) {
	fs := flag.NewFlagSet("feedings", flag.ExitOnError)
	timelineID := fs.Int64("timeline", 0, "Timeline ID (required)")
	partyID := fs.Int64("party", 0, "Acting party ID (required)")
	limit := fs.Int("limit", 0, "Max rows")
	fs.Parse(args)

	feedings, err := a.careLogs.ListFeedings(*timelineID, *partyID, *limit)
	if err != nil {
		log.Fatalf("Failed to list feedings: %v", err)
	}
	for _, f := range feedings {
		fmt.Printf("%s\t%.0f ml\t%s\n", f.FedAt.Format(time.RFC3339), f.AmountML, f.Note)
	}
}
