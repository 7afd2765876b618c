package cmd

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cardealbroker/dealbroker/pkg/dealbroker/client"
	"github.com/cardealbroker/dealbroker/pkg/dealbroker/dal"
)

const dealsJSON = `[
	{"id":1,"make":"Tesla","model":"Model 3","year":2023,"lease_price":499,"term":36,"down_payment":3999,"mileage":10000,"msrp":42000,"savings":4000,"tags":["Electric"]},
	{"id":2,"make":"BMW","model":"X5","year":2024,"lease_price":699,"term":36,"down_payment":4999,"mileage":10000,"msrp":68000,"savings":0,"tags":["Luxury","SUV"]}
]`

func TestListingsCommand(t *testing.T) {
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/deals/" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(dealsJSON))
	}))
	defer api.Close()

	var out bytes.Buffer
	RootCmd.SetOut(&out)
	RootCmd.SetArgs([]string{"listings", "deals", "--api", api.URL, "--make", "Tesla"})
	require.NoError(t, RootCmd.Execute())

	assert.Contains(t, out.String(), "2023 Tesla Model 3")
	assert.Contains(t, out.String(), "Save $4000")
	assert.NotContains(t, out.String(), "BMW")
}

func TestPrintView(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, printView(&out, dal.KindDemo, client.View{Empty: client.FilteredOut}))
	assert.Equal(t, "No demos match the current filters.\n", out.String())

	out.Reset()
	require.NoError(t, printView(&out, dal.KindDeal, client.View{Empty: client.NoListings}))
	assert.Equal(t, "No deals available right now.\n", out.String())

	out.Reset()
	view := client.View{Listings: []dal.Listing{{ID: 2, Make: "BMW", Model: "X5", Year: 2024, LeasePrice: 699, Term: 36, Savings: dal.Savings(0)}}}
	require.NoError(t, printView(&out, dal.KindDeal, view))
	assert.Contains(t, out.String(), "$699/mo")
	assert.NotContains(t, out.String(), "Save")
}

func TestVersionCommand(t *testing.T) {
	var out bytes.Buffer
	RootCmd.SetOut(&out)
	RootCmd.SetArgs([]string{"version"})
	require.NoError(t, RootCmd.Execute())
	assert.Equal(t, "dealbroker dev\n", out.String())
}
