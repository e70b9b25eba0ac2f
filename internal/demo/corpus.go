// Package demo generates a deterministic training corpus so the
// analyzer can run with established baselines out of the box.
package demo

import (
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/mikey/bec-analyzer/internal/core"
)

const seed = 1847

// sender describes one habitual correspondent in the demo corpus.
type sender struct {
	addr      string
	tzOffset  int
	startHour int
	endHour   int
	bodies    []string
	subjects  []string
}

// Emails returns the demo corpus for the given organization domain.
// The corpus is deterministic for a fixed "now" so repeated training
// runs produce identical baselines.
func Emails(domain string, now time.Time) []core.Email {
	rng := rand.New(rand.NewSource(seed))
	recipient := "bbrown@" + domain

	senders := []sender{
		{
			addr:      "cfo@" + domain,
			tzOffset:  -360,
			startHour: 8,
			endHour:   18,
			subjects: []string{
				"Q4 Budget Review",
				"Monthly financials attached",
				"Re: Vendor Payment Approval",
				"Capital allocation planning",
				"Board deck comments",
			},
			bodies: []string{
				"Hi Brian,\n\nI've reviewed the budget projections and everything looks on track. The marketing spend is slightly higher than expected, but we're seeing good return on the new campaigns.\n\nLet's sync tomorrow to discuss the capital allocation for next quarter.\n\nBest,\nSarah",
				"Brian,\n\nI've approved the vendor payment request. Please proceed through the normal channels and the finance team will handle the wire transfer via our standard process.\n\nThanks,\nSarah",
				"Hi Brian,\n\nAttached are the monthly financials for your review. Revenue is up this month, margins improved and our cash position remains strong.\n\nLet me know if you have any questions.\n\nBest,\nSarah",
				"Hi Brian,\n\nBefore the board meeting, could you take another look at the hiring plan assumptions? I don't think the ramp timeline is realistic and we shouldn't present numbers we can't defend.\n\nBest,\nSarah",
			},
		},
		{
			addr:      "accounting@" + domain,
			tzOffset:  -360,
			startHour: 9,
			endHour:   17,
			subjects: []string{
				"Expense report approval needed",
				"Weekly AP summary",
				"Re: Purchase order status",
			},
			bodies: []string{
				"Hi Brian,\n\nYou have three expense reports pending approval: marketing travel, an engineering conference and a client dinner. Please approve them when you get a chance.\n\nThanks,\nAccounting Team",
				"Hi Brian,\n\nHere is the weekly accounts payable summary. All invoices are within terms and nothing is overdue. The vendor payment run is scheduled for Friday as usual.\n\nThanks,\nAccounting Team",
			},
		},
		{
			addr:      "billing@trustedvendor.com",
			tzOffset:  -300,
			startHour: 9,
			endHour:   17,
			subjects: []string{
				"Invoice for services rendered",
				"Re: Payment confirmation",
				"Statement of account",
			},
			bodies: []string{
				"Dear Mr. Brown,\n\nPlease find attached the invoice for services rendered last month. Payment terms are net thirty as per our agreement. Our banking details remain unchanged from our master services agreement.\n\nBest regards,\nJohn Smith\nAccounts Receivable",
				"Dear Mr. Brown,\n\nThis confirms receipt of your payment. A receipt is attached for your records. Thank you for your continued business and please reach out with any questions.\n\nBest regards,\nJohn Smith",
			},
		},
		{
			addr:      "partner@lawfirm.com",
			tzOffset:  -300,
			startHour: 8,
			endHour:   19,
			subjects: []string{
				"Contract review complete",
				"Re: Acquisition agreement",
				"Engagement letter renewal",
			},
			bodies: []string{
				"Brian,\n\nOur team has completed the review of the proposed agreement. Overall the terms are favorable. I've marked up a few sections that need attention, see my comments in the attached redline.\n\nPlease call me at your convenience to discuss.\n\nRegards,\nMichael Patterson",
				"Brian,\n\nFollowing up on our call, I've circulated the revised draft to opposing counsel. I expect comments back by the end of the week and will schedule time with you once they arrive.\n\nRegards,\nMichael Patterson",
			},
		},
	}

	var emails []core.Email
	for _, snd := range senders {
		emails = append(emails, senderThreads(rng, snd, recipient, now)...)
	}
	return emails
}

// senderThreads emits roughly six months of weekday traffic from one
// sender, with a reply from the recipient on most threads so the trust
// graph sees reciprocal edges.
func senderThreads(rng *rand.Rand, snd sender, recipient string, now time.Time) []core.Email {
	var emails []core.Email

	day := now.AddDate(0, -6, 0)
	thread := 0
	for day.Before(now) {
		day = day.AddDate(0, 0, 1+rng.Intn(4))
		if wd := day.Weekday(); wd == time.Saturday || wd == time.Sunday {
			continue
		}

		hour := snd.startHour + rng.Intn(snd.endHour-snd.startHour)
		sent := time.Date(day.Year(), day.Month(), day.Day(), hour, rng.Intn(60), 0, 0, time.UTC)
		if !sent.Before(now) {
			break
		}

		msgID := uuid.NewString() + "@demo"
		subject := snd.subjects[thread%len(snd.subjects)]
		body := snd.bodies[thread%len(snd.bodies)]

		emails = append(emails, core.Email{
			MessageID:      msgID,
			From:           snd.addr,
			To:             recipient,
			Subject:        subject,
			Body:           body,
			Timestamp:      sent,
			TimezoneOffset: snd.tzOffset,
		})

		// Reply within a few hours to establish response-time and
		// reciprocity baselines.
		if rng.Float64() < 0.8 {
			reply := sent.Add(time.Duration(20+rng.Intn(180)) * time.Minute)
			emails = append(emails, core.Email{
				MessageID:      uuid.NewString() + "@demo",
				InReplyTo:      msgID,
				From:           recipient,
				To:             snd.addr,
				Subject:        "Re: " + subject,
				Body:           "Thanks, will take a look.\n\nThis is noted on my end and I'll follow up with the team before our next sync so we can close it out.\n\nBrian",
				Timestamp:      reply,
				TimezoneOffset: -360,
			})
		}
		thread++
	}

	return emails
}

// Train feeds the demo corpus into a scorer and finalizes it.
func Train(scorer *core.Scorer, domain string, now time.Time) (int, error) {
	emails := Emails(domain, now)
	for _, email := range emails {
		if err := scorer.Train(email); err != nil {
			return 0, err
		}
	}
	if err := scorer.FinalizeTraining(); err != nil {
		return 0, err
	}
	return len(emails), nil
}
