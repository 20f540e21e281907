package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/limbo/lumi/pkg/client"
	"github.com/limbo/lumi/pkg/entity"
)

type Context struct {
	Server      string
	Timeout     time.Duration
	Client      *client.Client
	Credentials *client.CredentialStore
	Log         *log.Logger

	session *client.Session
}

func (c *Context) ctx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), c.Timeout)
}

// authenticate loads the stored session into the client.
func (c *Context) authenticate() (*client.Session, error) {
	if c.session != nil {
		return c.session, nil
	}
	session, err := c.Credentials.Load(c.Server)
	if errors.Is(err, client.ErrNoCredentials) {
		return nil, fmt.Errorf("not logged in to %s, run lumictl login", c.Server)
	}
	if err != nil {
		return nil, err
	}
	c.Log.Debug("using stored session", "uid", session.UserID)
	c.Client.SetToken(session.Token)
	c.session = session
	return session, nil
}

func (c *Context) mirror() (*client.SyncCache, error) {
	session, err := c.authenticate()
	if err != nil {
		return nil, err
	}
	return client.NewSyncCache(c.Client, session.UserID), nil
}

type SignupCmd struct {
	Email    string `required:"" help:"Account email."`
	Password string `required:"" env:"LUMI_PASSWORD" help:"Account password, at least 8 characters."`
	Name     string `required:"" help:"Display name."`
	DayStart string `help:"When your day starts, HH:MM." placeholder:"06:00"`
	DayEnd   string `help:"When your day ends, HH:MM." placeholder:"22:00"`
	Timezone string `help:"IANA timezone, e.g. Europe/Berlin."`
}

func (cmd *SignupCmd) Run(c *Context) error {
	ctx, cancel := c.ctx()
	defer cancel()
	uid, err := c.Client.Signup(ctx, client.SignupRequest{
		Email:        cmd.Email,
		Password:     cmd.Password,
		Name:         cmd.Name,
		DayStartTime: cmd.DayStart,
		DayEndTime:   cmd.DayEnd,
		Timezone:     cmd.Timezone,
	})
	if err != nil {
		return err
	}
	fmt.Printf("Account created: %s\n", uid)
	return nil
}

type LoginCmd struct {
	Email    string `required:"" help:"Account email."`
	Password string `required:"" env:"LUMI_PASSWORD" help:"Account password."`
}

func (cmd *LoginCmd) Run(c *Context) error {
	ctx, cancel := c.ctx()
	defer cancel()
	session, err := c.Client.Login(ctx, cmd.Email, cmd.Password)
	if err != nil {
		return err
	}
	if err = c.Credentials.Save(c.Server, session); err != nil {
		return err
	}
	c.Log.Info("session stored in keyring", "server", c.Server)
	fmt.Printf("Logged in as %s\n", session.UserID)
	return nil
}

type LogoutCmd struct{}

func (cmd *LogoutCmd) Run(c *Context) error {
	err := c.Credentials.Delete(c.Server)
	if errors.Is(err, client.ErrNoCredentials) {
		fmt.Println("Not logged in")
		return nil
	}
	if err != nil {
		return err
	}
	fmt.Println("Logged out")
	return nil
}

type ProfileCmd struct {
	Name     string  `required:"" help:"Name."`
	Age      int     `required:"" help:"Age in years."`
	Gender   string  `required:"" enum:"male,female,other" help:"male, female or other."`
	Weight   float64 `required:"" help:"Weight in kg."`
	Height   float64 `required:"" help:"Height in cm."`
	Activity string  `default:"moderate" enum:"sedentary,light,moderate,very" help:"Activity level."`
}

func (cmd *ProfileCmd) Run(c *Context) error {
	sc, err := c.mirror()
	if err != nil {
		return err
	}
	ctx, cancel := c.ctx()
	defer cancel()
	err = sc.UpdateProfile(ctx, entity.Profile{
		Name:          cmd.Name,
		Age:           cmd.Age,
		Gender:        entity.Gender(cmd.Gender),
		WeightKg:      cmd.Weight,
		HeightCm:      cmd.Height,
		ActivityLevel: entity.ActivityLevel(cmd.Activity),
	})
	if err != nil {
		return err
	}
	if needs := sc.State().Needs; needs != nil {
		fmt.Printf("Daily targets: %dg protein, %dg fiber, %d glasses of water\n",
			needs.DailyProteinG, needs.DailyFiberG, needs.DailyWaterGlasses)
		fmt.Printf("Per meal: %dg protein, %dg fiber\n", needs.ProteinPerMealG, needs.FiberPerMealG)
	}
	return nil
}

type WaterCmd struct {
	Glasses int `arg:"" optional:"" default:"1" help:"Number of glasses."`
}

func (cmd *WaterCmd) Run(c *Context) error {
	sc, err := c.mirror()
	if err != nil {
		return err
	}
	ctx, cancel := c.ctx()
	defer cancel()
	if err = sc.AddWater(ctx, cmd.Glasses); err != nil {
		return err
	}
	printDay(sc.State())
	return nil
}

type MealCmd struct {
	Slot    string  `arg:"" enum:"breakfast,lunch,dinner" help:"breakfast, lunch or dinner."`
	Protein float64 `short:"p" help:"Protein in grams."`
	Fiber   float64 `short:"f" help:"Fiber in grams."`
}

func (cmd *MealCmd) Run(c *Context) error {
	sc, err := c.mirror()
	if err != nil {
		return err
	}
	ctx, cancel := c.ctx()
	defer cancel()
	if err = sc.RecordMeal(ctx, entity.MealSlot(cmd.Slot), cmd.Protein, cmd.Fiber); err != nil {
		return err
	}
	printDay(sc.State())
	return nil
}

type SummaryCmd struct{}

func (cmd *SummaryCmd) Run(c *Context) error {
	sc, err := c.mirror()
	if err != nil {
		return err
	}
	ctx, cancel := c.ctx()
	defer cancel()
	if err = sc.Refresh(ctx); err != nil {
		return err
	}
	printDay(sc.State())
	return nil
}

type HistoryCmd struct {
	Days int `default:"7" help:"How many days to show."`
}

func (cmd *HistoryCmd) Run(c *Context) error {
	session, err := c.authenticate()
	if err != nil {
		return err
	}
	ctx, cancel := c.ctx()
	defer cancel()
	history, err := c.Client.GetHistory(ctx, session.UserID, cmd.Days)
	if err != nil {
		return err
	}
	if len(history) == 0 {
		fmt.Println("No records yet")
		return nil
	}
	for _, day := range history {
		mark := " "
		if day.IsBalanced {
			mark = "*"
		}
		fmt.Printf("%s %s  water %2d  protein %6.1fg  fiber %5.1fg\n",
			mark, day.Date, day.WaterGlasses, day.TotalProtein, day.TotalFiber)
	}
	return nil
}

type StreakCmd struct{}

func (cmd *StreakCmd) Run(c *Context) error {
	session, err := c.authenticate()
	if err != nil {
		return err
	}
	ctx, cancel := c.ctx()
	defer cancel()
	streak, err := c.Client.GetStreak(ctx, session.UserID)
	if err != nil {
		return err
	}
	fmt.Println(formatStreak(*streak))
	return nil
}

func formatStreak(s entity.StreakState) string {
	last := "never"
	if s.LastBalancedDate != nil {
		last = *s.LastBalancedDate
	}
	return fmt.Sprintf("Streak: %d days (longest %d, last balanced %s)", s.CurrentStreak, s.LongestStreak, last)
}

func printDay(s client.State) {
	fmt.Printf("%s\n", s.Today.Date)
	water := fmt.Sprintf("%d", s.Today.WaterGlasses)
	if s.Needs != nil {
		water += fmt.Sprintf("/%d", s.Needs.DailyWaterGlasses)
	}
	fmt.Printf("  water    %s glasses\n", water)
	for _, slot := range entity.MealSlots {
		intake := s.Meals[slot]
		fmt.Printf("  %-9s %5.1fg protein %5.1fg fiber\n", slot, intake.Protein, intake.Fiber)
	}
	fmt.Printf("  total    %5.1fg protein %5.1fg fiber\n", s.Today.TotalProtein, s.Today.TotalFiber)
	switch {
	case s.Needs == nil:
		fmt.Println("  no profile yet, run lumictl profile to get targets")
	case s.IsBalanced:
		fmt.Println("  balanced " + strings.Repeat("*", max(1, s.Streak.CurrentStreak)))
	default:
		fmt.Printf("  targets  %dg protein %dg fiber\n", s.Needs.DailyProteinG, s.Needs.DailyFiberG)
	}
	fmt.Println(formatStreak(s.Streak))
}
